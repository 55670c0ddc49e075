package sandbox

import (
	"strings"
	"time"

	"github.com/dop251/goja"
)

// hostImport stands in for import(), which goja cannot parse
const hostImport = "__sandbox_import"

// rewriteImports routes the dynamic imports emitted by the encoder through hostImport
func rewriteImports(code string) string {
	return strings.ReplaceAll(code, "await import(", "await "+hostImport+"(")
}

// setupGlobals configures global objects and security
func (p *Page) setupGlobals() error {
	vm := p.vm

	// Remove dangerous globals
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())

	console := vm.NewObject()
	for _, level := range []string{"log", "warn", "error", "info", "debug"} {
		console.Set(level, p.makeConsoleFunc(level))
	}
	vm.Set("console", console)

	// Timers never fire; lifecycle is driven by Finish
	vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})

	window := vm.GlobalObject()
	vm.Set("window", window)
	vm.Set("self", window)
	vm.Set("addEventListener", p.makeAddEventListener(p.windowListeners))

	vm.Set("localStorage", p.newStorageObject())
	vm.Set(hostImport, p.importModule)

	if p.config.EnableDOM {
		vm.Set("document", p.newDocumentObject())
	}
	return nil
}

// makeConsoleFunc creates a console function
func (p *Page) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if !p.config.EnableConsole {
			return goja.Undefined()
		}

		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		p.consoleMu.Lock()
		p.console = append(p.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		p.consoleMu.Unlock()

		return goja.Undefined()
	}
}

func (p *Page) makeAddEventListener(listeners map[string][]goja.Value) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		event := call.Argument(0).String()
		listener := call.Argument(1)
		if _, ok := goja.AssertFunction(listener); ok {
			listeners[event] = append(listeners[event], listener)
		}
		return goja.Undefined()
	}
}

// importModule evaluates a registered module and settles a promise with the
// outcome. Unknown URLs reject like a failed network fetch.
func (p *Page) importModule(call goja.FunctionCall) goja.Value {
	url := call.Argument(0).String()
	promise, resolve, reject := p.vm.NewPromise()

	source, ok := p.config.Modules[url]
	if !ok {
		reject(p.vm.NewTypeError("Failed to fetch dynamically imported module: " + url))
		return p.vm.ToValue(promise)
	}

	if _, err := p.vm.RunString(source); err != nil {
		switch e := err.(type) {
		case *goja.InterruptedError:
			// re-arm so the outer run stops too
			p.vm.Interrupt(e.Value())
			return goja.Undefined()
		case *goja.Exception:
			reject(e.Value())
		default:
			reject(p.vm.NewGoError(err))
		}
		return p.vm.ToValue(promise)
	}

	p.imports = append(p.imports, url)
	resolve(p.vm.NewObject())
	return p.vm.ToValue(promise)
}

func (p *Page) newStorageObject() *goja.Object {
	vm := p.vm
	storage := vm.NewObject()

	storage.Set("getItem", func(key string) goja.Value {
		if v, ok := p.storage.Get(key); ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	storage.Set("setItem", func(call goja.FunctionCall) goja.Value {
		p.storage.Set(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	storage.Set("removeItem", func(key string) {
		p.storage.Remove(key)
	})
	storage.Set("key", func(i int) goja.Value {
		if k, ok := p.storage.Key(i); ok {
			return vm.ToValue(k)
		}
		return goja.Null()
	})
	storage.Set("clear", func() {
		p.storage.Clear()
	})
	storage.DefineAccessorProperty("length", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(p.storage.Len())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	return storage
}

func (p *Page) newDocumentObject() *goja.Object {
	vm := p.vm
	document := vm.NewObject()

	document.Set("createElement", func(tag string) goja.Value {
		return p.wrap(p.dom.CreateElement(tag))
	})
	document.Set("querySelector", func(selector string) goja.Value {
		return p.wrap(p.dom.QueryFirst(selector))
	})
	document.Set("querySelectorAll", func(selector string) goja.Value {
		found := p.dom.Query(selector)
		items := make([]interface{}, len(found))
		for i, elem := range found {
			items[i] = p.wrap(elem)
		}
		return vm.NewArray(items...)
	})
	document.Set("getElementById", func(id string) goja.Value {
		return p.wrap(p.dom.QueryFirst("#" + id))
	})
	document.Set("getElementsByTagName", func(tag string) goja.Value {
		found := p.dom.Query(tag)
		items := make([]interface{}, len(found))
		for i, elem := range found {
			items[i] = p.wrap(elem)
		}
		return vm.NewArray(items...)
	})
	document.Set("addEventListener", p.makeAddEventListener(p.docListeners))

	p.getter(document, "head", func() goja.Value { return p.wrap(p.dom.Head()) })
	p.getter(document, "body", func() goja.Value { return p.wrap(p.dom.Body()) })
	p.getter(document, "documentElement", func() goja.Value { return p.wrap(p.dom.DocumentElement()) })
	p.getter(document, "readyState", func() goja.Value { return vm.ToValue(p.readyState) })

	return document
}

// wrap returns the JS object for elem, creating it once per element
func (p *Page) wrap(elem *Element) goja.Value {
	if elem == nil {
		return goja.Null()
	}
	if obj, ok := p.objects[elem]; ok {
		return obj
	}

	vm := p.vm
	obj := vm.NewObject()
	p.objects[elem] = obj
	p.nodes[obj] = elem

	obj.Set("tagName", strings.ToUpper(elem.TagName))
	obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		p.dom.SetAttribute(elem, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	obj.Set("getAttribute", func(name string) goja.Value {
		if !elem.HasAttribute(name) {
			return goja.Null()
		}
		return vm.ToValue(elem.GetAttribute(name))
	})
	appendChild := func(call goja.FunctionCall) goja.Value {
		child := p.unwrap(call.Argument(0))
		if child == nil {
			panic(vm.NewTypeError("appendChild: parameter 1 is not of type 'Node'"))
		}
		p.dom.Append(elem, child)
		return call.Argument(0)
	}
	obj.Set("appendChild", appendChild)
	obj.Set("append", appendChild)
	obj.Set("remove", func() {
		p.dom.Remove(elem)
	})

	obj.DefineAccessorProperty("textContent",
		vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(p.dom.Text(elem))
		}),
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			p.dom.SetText(elem, call.Argument(0).String())
			return goja.Undefined()
		}),
		goja.FLAG_TRUE, goja.FLAG_TRUE)
	p.getter(obj, "id", func() goja.Value { return vm.ToValue(elem.ID) })
	p.getter(obj, "parentNode", func() goja.Value {
		if elem.Parent == nil || elem.Parent.TagName == "#document" {
			return goja.Null()
		}
		return p.wrap(elem.Parent)
	})

	return obj
}

func (p *Page) unwrap(v goja.Value) *Element {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	return p.nodes[obj]
}

func (p *Page) getter(obj *goja.Object, name string, get func() goja.Value) {
	obj.DefineAccessorProperty(name, p.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return get()
	}), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
}
