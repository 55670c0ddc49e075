package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Document ready states
const (
	StateLoading     = "loading"
	StateInteractive = "interactive"
	StateComplete    = "complete"
)

// Page is an emulated host page backed by a goja runtime
type Page struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	dom     *DOM
	storage *Storage

	// element <-> JS object identity
	objects map[*Element]*goja.Object
	nodes   map[*goja.Object]*Element

	docListeners    map[string][]goja.Value
	windowListeners map[string][]goja.Value
	readyState      string

	start      time.Time
	elapsed    time.Duration
	last       goja.Value
	imports    []string
	errors     []string
	rejections []*goja.Promise

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a page with an empty document
func New(config Config) (*Page, error) {
	p := &Page{config: config}
	if err := p.Load(nil); err != nil {
		return nil, err
	}
	return p, nil
}

// Load resets the page onto dom. A nil dom loads an empty document.
func (p *Page) Load(dom *DOM) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if dom == nil {
		dom = NewDOM()
	}

	p.vm = goja.New()
	p.dom = dom
	p.storage = NewStorage()
	p.objects = make(map[*Element]*goja.Object)
	p.nodes = make(map[*goja.Object]*Element)
	p.docListeners = make(map[string][]goja.Value)
	p.windowListeners = make(map[string][]goja.Value)
	p.readyState = StateLoading
	p.elapsed = 0
	p.last = nil
	p.imports = nil
	p.errors = nil
	p.rejections = nil

	p.consoleMu.Lock()
	p.console = []LogEntry{}
	p.consoleMu.Unlock()

	if p.config.MaxMemoryMB > 0 {
		p.vm.SetMaxCallStackSize(1024)
	}
	p.vm.SetPromiseRejectionTracker(p.trackRejection)

	return p.setupGlobals()
}

// Deliver runs a payload in the page, the way a content-script bridge would
func (p *Page) Deliver(ctx context.Context, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.vm == nil {
		return ErrPageClosed
	}

	return p.guard(ctx, func() error {
		val, err := p.vm.RunString(rewriteImports(code))
		if err != nil {
			return err
		}
		p.last = val
		return nil
	})
}

// Finish fires DOMContentLoaded and then load. Each fires at most once per
// Load; exceptions thrown by listeners are recorded, not returned.
func (p *Page) Finish(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.vm == nil {
		return ErrPageClosed
	}
	if p.readyState == StateComplete {
		return nil
	}

	if p.readyState == StateLoading {
		p.readyState = StateInteractive
		if err := p.dispatch(ctx, p.docListeners, "DOMContentLoaded", p.vm.Get("document")); err != nil {
			return err
		}
	}

	p.readyState = StateComplete
	if err := p.dispatch(ctx, p.windowListeners, "load", p.vm.GlobalObject()); err != nil {
		return err
	}
	return p.guard(ctx, func() error {
		if fn, ok := goja.AssertFunction(p.vm.Get("onload")); ok {
			if _, err := fn(p.vm.GlobalObject(), p.event("load")); err != nil {
				if _, interrupted := err.(*goja.InterruptedError); interrupted {
					return err
				}
				p.recordError(err)
			}
		}
		return nil
	})
}

// ReadyState returns document.readyState
func (p *Page) ReadyState() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readyState
}

// DOM returns the page document
func (p *Page) DOM() *DOM {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dom
}

// Storage returns the page localStorage
func (p *Page) Storage() *Storage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage
}

// Result snapshots everything observed since the last Load
func (p *Page) Result() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := &Result{
		Value:      exportValue(p.last),
		Storage:    p.storage.Snapshot(),
		Imports:    append([]string{}, p.imports...),
		Errors:     append([]string{}, p.errors...),
		Rejections: []string{},
		Duration:   p.elapsed,
	}
	for _, promise := range p.rejections {
		result.Rejections = append(result.Rejections, promise.Result().String())
	}
	if p.dom != nil {
		result.DOMChanges = p.dom.GetChanges()
	}

	p.consoleMu.Lock()
	result.Console = append([]LogEntry{}, p.console...)
	p.consoleMu.Unlock()

	return result
}

// Reset clears the page state
func (p *Page) Reset() error {
	return p.Load(nil)
}

// Close releases resources
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.vm = nil
	p.dom = nil
	p.objects = nil
	p.nodes = nil
	p.console = nil
	return nil
}

// guard runs fn with the configured timeout and ctx cancellation as interrupts
func (p *Page) guard(ctx context.Context, fn func() error) error {
	start := time.Now()

	var timeout <-chan time.Time
	if p.config.Timeout > 0 {
		timer := time.NewTimer(p.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-timeout:
			p.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			p.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	err := fn()

	close(done)
	<-exited
	p.vm.ClearInterrupt()
	p.elapsed += time.Since(start)
	return err
}

func (p *Page) dispatch(ctx context.Context, listeners map[string][]goja.Value, event string, this goja.Value) error {
	registered := listeners[event]
	delete(listeners, event)

	return p.guard(ctx, func() error {
		for _, listener := range registered {
			fn, ok := goja.AssertFunction(listener)
			if !ok {
				continue
			}
			if _, err := fn(this, p.event(event)); err != nil {
				if _, interrupted := err.(*goja.InterruptedError); interrupted {
					return err
				}
				p.recordError(err)
			}
		}
		return nil
	})
}

func (p *Page) event(name string) goja.Value {
	ev := p.vm.NewObject()
	ev.Set("type", name)
	return ev
}

func (p *Page) recordError(err error) {
	p.errors = append(p.errors, err.Error())
}

func (p *Page) trackRejection(promise *goja.Promise, op goja.PromiseRejectionOperation) {
	switch op {
	case goja.PromiseRejectionReject:
		p.rejections = append(p.rejections, promise)
	case goja.PromiseRejectionHandle:
		for i, tracked := range p.rejections {
			if tracked == promise {
				p.rejections = append(p.rejections[:i], p.rejections[i+1:]...)
				break
			}
		}
	}
}

func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// String describes the page for logs
func (p *Page) String() string {
	return fmt.Sprintf("page(%s)", p.ReadyState())
}
