package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pool manages a pool of reusable pages
type Pool struct {
	config Config
	pages  chan *Page
	size   int
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a page pool
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config: config,
		pages:  make(chan *Page, size),
		size:   size,
	}

	// Pre-create pages
	for i := 0; i < size; i++ {
		page, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.pages <- page
	}

	return pool, nil
}

// Acquire gets a page from pool with timeout
func (p *Pool) Acquire(ctx context.Context) (*Page, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	select {
	case page := <-p.pages:
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return nil, ErrTimeout
	}
}

// Release returns page to pool
func (p *Pool) Release(page *Page) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return page.Close()
	}

	// Reset page state
	if err := page.Reset(); err != nil {
		page.Close()
		if fresh, err := New(p.config); err == nil {
			p.pages <- fresh
		}
		return err
	}

	select {
	case p.pages <- page:
		return nil
	default:
		// Pool full, close page
		return page.Close()
	}
}

// Run loads dom into a pooled page, delivers every payload in order and
// completes the page lifecycle. It stops at the first rejected payload and
// returns the partial result together with the error.
func (p *Pool) Run(ctx context.Context, dom *DOM, payloads ...string) (*Result, error) {
	page, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(page)

	if err := page.Load(dom); err != nil {
		return nil, err
	}

	for i, payload := range payloads {
		if err := page.Deliver(ctx, payload); err != nil {
			return page.Result(), fmt.Errorf("payload %d: %w", i, err)
		}
	}
	if err := page.Finish(ctx); err != nil {
		return page.Result(), err
	}
	return page.Result(), nil
}

// Close closes pool and all pages
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.pages)

	for page := range p.pages {
		page.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.pages),
		"in_use":    p.size - len(p.pages),
		"closed":    p.closed,
	}
}
