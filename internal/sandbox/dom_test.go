package sandbox

import (
	"testing"
)

func TestNewDOM(t *testing.T) {
	dom := NewDOM()

	if dom.DocumentElement() == nil || dom.Head() == nil || dom.Body() == nil {
		t.Fatal("Expected html, head and body")
	}
	if dom.Head().Parent != dom.DocumentElement() {
		t.Error("head is not a child of html")
	}
}

func TestNewDOMFromHTML(t *testing.T) {
	markup := `<html><head><title>Page</title></head>
		<body><div id="main" class="box wide"><p>first</p><p class="note">second</p></div></body></html>`

	dom, err := NewDOMFromHTML(markup)
	if err != nil {
		t.Fatalf("NewDOMFromHTML() error = %v", err)
	}

	main := dom.QueryFirst("#main")
	if main == nil {
		t.Fatal("Expected #main")
	}
	if main.TagName != "div" || main.ClassName != "box wide" {
		t.Errorf("Unexpected element %+v", main)
	}
	if got := dom.Text(main); got != "firstsecond" {
		t.Errorf("Text() = %q", got)
	}
	if n := len(dom.Query("p")); n != 2 {
		t.Errorf("Expected 2 paragraphs, got %d", n)
	}
	if n := len(dom.Query(".wide")); n != 1 {
		t.Errorf("Expected 1 .wide element, got %d", n)
	}
	if note := dom.QueryFirst(".note"); note == nil || dom.Text(note) != "second" {
		t.Errorf("Unexpected .note %+v", note)
	}
}

func TestNewDOMFromFragment(t *testing.T) {
	dom, err := NewDOMFromHTML(`<span>bare</span>`)
	if err != nil {
		t.Fatalf("NewDOMFromHTML() error = %v", err)
	}

	if dom.Head() == nil || dom.Body() == nil {
		t.Fatal("Parser should synthesize head and body")
	}
	if span := dom.QueryFirst("span"); span == nil || span.Parent != dom.Body() {
		t.Error("Expected span inside body")
	}
}

func TestDOMChanges(t *testing.T) {
	dom := NewDOM()
	style := dom.CreateElement("STYLE")

	dom.SetText(style, "a{}")
	dom.Append(dom.Head(), style)
	dom.SetAttribute(style, "id", "theme")
	dom.Remove(style)

	changes := dom.GetChanges()
	want := []struct{ typ, selector, property string }{
		{"set_text", "style", "textContent"},
		{"append_child", "head", "style"},
		{"set_attribute", "style#theme", "id"},
		{"remove_child", "head", "style"},
	}
	if len(changes) != len(want) {
		t.Fatalf("Expected %d changes, got %v", len(want), changes)
	}
	for i, w := range want {
		c := changes[i]
		if c.Type != w.typ || c.Selector != w.selector || c.Property != w.property {
			t.Errorf("Change %d = %+v, want %+v", i, c, w)
		}
	}

	if dom.QueryFirst("#theme") != nil {
		t.Error("Removed element is still reachable")
	}
}

func TestStorageOrder(t *testing.T) {
	s := NewStorage()
	s.Set("b", "1")
	s.Set("a", "2")
	s.Set("b", "3")

	if s.Len() != 2 {
		t.Fatalf("Len() = %d", s.Len())
	}
	if k, _ := s.Key(0); k != "b" {
		t.Errorf("Key(0) = %s", k)
	}
	if v, _ := s.Get("b"); v != "3" {
		t.Errorf("Get(b) = %s", v)
	}

	s.Remove("b")
	if k, _ := s.Key(0); k != "a" {
		t.Errorf("Key(0) after remove = %s", k)
	}
	if _, ok := s.Key(1); ok {
		t.Error("Key(1) should be out of range")
	}

	s.Clear()
	if s.Len() != 0 || len(s.Snapshot()) != 0 {
		t.Error("Clear() left keys behind")
	}
}
