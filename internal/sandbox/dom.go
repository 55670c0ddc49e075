package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DOM provides a lightweight document model for the emulated page
type DOM struct {
	root    *Element
	changes []DOMChange
	mu      sync.RWMutex
}

// Element represents a DOM element
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
	Children    []*Element
	Parent      *Element
}

func newElement(tag string) *Element {
	return &Element{
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string),
	}
}

// NewDOM creates an empty document with html, head and body
func NewDOM() *DOM {
	root := newElement("#document")
	html := newElement("html")
	root.addChild(html)
	html.addChild(newElement("head"))
	html.addChild(newElement("body"))

	return &DOM{root: root}
}

// NewDOMFromHTML parses markup into a document. Missing html, head and body
// elements are synthesized by the parser.
func NewDOMFromHTML(markup string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	root := newElement("#document")
	doc.Find("html").First().Each(func(_ int, s *goquery.Selection) {
		root.addChild(fromSelection(s))
	})
	return &DOM{root: root}, nil
}

func fromSelection(s *goquery.Selection) *Element {
	elem := newElement(goquery.NodeName(s))
	for _, attr := range s.Nodes[0].Attr {
		elem.setAttribute(attr.Key, attr.Val)
	}

	children := s.Children()
	if children.Length() == 0 {
		elem.TextContent = s.Text()
		return elem
	}
	children.Each(func(_ int, child *goquery.Selection) {
		elem.addChild(fromSelection(child))
	})
	return elem
}

// DocumentElement returns the html element
func (d *DOM) DocumentElement() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.firstByTag(d.root, "html")
}

// Head returns the head element, or nil when the document has none
func (d *DOM) Head() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.firstByTag(d.root, "head")
}

// Body returns the body element, or nil when the document has none
func (d *DOM) Body() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.firstByTag(d.root, "body")
}

// Query finds elements by selector (simplified)
func (d *DOM) Query(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	selector = strings.TrimSpace(selector)
	switch {
	case strings.HasPrefix(selector, "#"):
		if elem := d.findByID(d.root, strings.TrimPrefix(selector, "#")); elem != nil {
			return []*Element{elem}
		}
		return []*Element{}
	case strings.HasPrefix(selector, "."):
		return d.findByClass(d.root, strings.TrimPrefix(selector, "."))
	default:
		return d.findByTag(d.root, selector)
	}
}

// QueryFirst returns the first match of selector, or nil
func (d *DOM) QueryFirst(selector string) *Element {
	if found := d.Query(selector); len(found) > 0 {
		return found[0]
	}
	return nil
}

// CreateElement returns a detached element
func (d *DOM) CreateElement(tag string) *Element {
	return newElement(tag)
}

// Append moves child under parent and records the change
func (d *DOM) Append(parent, child *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()

	child.detach()
	parent.addChild(child)
	d.changes = append(d.changes, DOMChange{
		Type:     "append_child",
		Selector: describe(parent),
		Property: child.TagName,
		Value:    child.TextContent,
	})
}

// Remove detaches elem from its parent
func (d *DOM) Remove(elem *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if elem.Parent == nil {
		return
	}
	parent := elem.Parent
	elem.detach()
	d.changes = append(d.changes, DOMChange{
		Type:     "remove_child",
		Selector: describe(parent),
		Property: elem.TagName,
	})
}

// SetAttribute sets an attribute and records the change
func (d *DOM) SetAttribute(elem *Element, name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	elem.setAttribute(name, value)
	d.changes = append(d.changes, DOMChange{
		Type:     "set_attribute",
		Selector: describe(elem),
		Property: name,
		Value:    value,
	})
}

// SetText replaces the text of elem and records the change
func (d *DOM) SetText(elem *Element, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	elem.TextContent = text
	elem.Children = nil
	d.changes = append(d.changes, DOMChange{
		Type:     "set_text",
		Selector: describe(elem),
		Property: "textContent",
		Value:    text,
	})
}

// Text reads the text of elem
func (d *DOM) Text(elem *Element) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return elem.text()
}

// GetChanges returns accumulated DOM changes
func (d *DOM) GetChanges() []DOMChange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]DOMChange{}, d.changes...)
}

// Element methods

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) string {
	return e.Attributes[name]
}

// HasAttribute reports whether the attribute is set
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.Attributes[name]
	return ok
}

func (e *Element) setAttribute(name, value string) {
	e.Attributes[name] = value
	switch name {
	case "id":
		e.ID = value
	case "class":
		e.ClassName = value
	}
}

func (e *Element) addChild(child *Element) {
	child.Parent = e
	e.Children = append(e.Children, child)
}

func (e *Element) detach() {
	if e.Parent == nil {
		return
	}
	children := e.Parent.Children[:0]
	for _, child := range e.Parent.Children {
		if child != e {
			children = append(children, child)
		}
	}
	e.Parent.Children = children
	e.Parent = nil
}

func (e *Element) text() string {
	if len(e.Children) == 0 {
		return e.TextContent
	}
	var sb strings.Builder
	sb.WriteString(e.TextContent)
	for _, child := range e.Children {
		sb.WriteString(child.text())
	}
	return sb.String()
}

func describe(e *Element) string {
	if e.ID != "" {
		return e.TagName + "#" + e.ID
	}
	return e.TagName
}

// Helper methods for querying

func (d *DOM) firstByTag(elem *Element, tag string) *Element {
	if elem.TagName == tag {
		return elem
	}
	for _, child := range elem.Children {
		if found := d.firstByTag(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func (d *DOM) findByID(elem *Element, id string) *Element {
	if elem.ID == id {
		return elem
	}
	for _, child := range elem.Children {
		if found := d.findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func (d *DOM) findByClass(elem *Element, class string) []*Element {
	var result []*Element
	for _, c := range strings.Fields(elem.ClassName) {
		if c == class {
			result = append(result, elem)
			break
		}
	}
	for _, child := range elem.Children {
		result = append(result, d.findByClass(child, class)...)
	}
	return result
}

func (d *DOM) findByTag(elem *Element, tag string) []*Element {
	var result []*Element
	if strings.EqualFold(elem.TagName, tag) {
		result = append(result, elem)
	}
	for _, child := range elem.Children {
		result = append(result, d.findByTag(child, tag)...)
	}
	return result
}
