package encoder

import "sort"

// ShimKind tells how a capability is provided to the script
type ShimKind int

const (
	// KindPolyfill is a multi-line definition written against DOM APIs
	KindPolyfill ShimKind = iota
	// KindBinding binds the capability name to an existing host API
	KindBinding
)

func (k ShimKind) String() string {
	if k == KindBinding {
		return "binding"
	}
	return "polyfill"
}

// Shim is the source that makes one capability available under its name
type Shim struct {
	Name   string
	Kind   ShimKind
	Source string
}

const addStyleSource = `
function GM_addStyle(css) {
	const style = document.createElement("style");
	style.setAttribute("type", "text/css");
	style.textContent = css;

	const head = document.querySelector("head");
	if (head === null || head === undefined) {
		document.documentElement.appendChild(style);
	} else {
		head.appendChild(style);
	}
	return style;
};
`

// GM_addElement(tag, attributes) appends to head, falling back to body
const addElementSource = `
function GM_addElement(parent_node, tag_name, attributes) {
	if (typeof parent_node === "string") {
		attributes = tag_name;
		tag_name = parent_node;
		parent_node = document.head || document.body;
	}
	const element = document.createElement(tag_name);
	for (const [key, value] of Object.entries(attributes || {})) {
		if (key != "textContent") {
			element.setAttribute(key, value);
		} else {
			element.textContent = value;
		};
	};
	if (parent_node === undefined || parent_node === null) {
		document.documentElement.appendChild(element);
	} else {
		parent_node.appendChild(element);
	};
	return element;
};
`

var shimTable = buildTable(
	polyfill("GM_addStyle", addStyleSource),
	polyfill("GM_addElement", addElementSource),
	binding("unsafeWindow", "window"),
	binding("GM_log", "console.log.bind(console)"),
	binding("GM_deleteValue", "localStorage.removeItem.bind(localStorage)"),
	binding("GM_setValue", "localStorage.setItem.bind(localStorage)"),
	binding("GM_getValue", "localStorage.getItem.bind(localStorage)"),
	binding("GM_listValues", "()=> [...Array(localStorage.length).keys()].map(x=>localStorage.key(x))"),
)

func polyfill(name, source string) Shim {
	return Shim{Name: name, Kind: KindPolyfill, Source: source}
}

func binding(name, expr string) Shim {
	return Shim{Name: name, Kind: KindBinding, Source: "const " + name + " = " + expr + ";"}
}

func buildTable(shims ...Shim) map[string]Shim {
	table := make(map[string]Shim, len(shims))
	for _, s := range shims {
		table[s.Name] = s
	}
	return table
}

// LookupShim returns the built-in shim for a capability name
func LookupShim(name string) (Shim, bool) {
	s, ok := shimTable[name]
	return s, ok
}

// ShimNames lists the built-in capability names in sorted order
func ShimNames() []string {
	names := make([]string, 0, len(shimTable))
	for name := range shimTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultShims returns a copy of the built-in table, for extension with WithShims
func DefaultShims() map[string]Shim {
	out := make(map[string]Shim, len(shimTable))
	for name, s := range shimTable {
		out[name] = s
	}
	return out
}
