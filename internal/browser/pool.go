// internal/browser/pool.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ChromePool implements the Pool interface. Batch DNC runs lease one
// session per worker from here.
type ChromePool struct {
	config      *Config
	browsers    chan Client
	maxSize     int
	currentSize int
	mu          sync.RWMutex
	closed      bool
}

// NewChromePool creates a new browser pool
func NewChromePool(config *Config, maxSize int) (*ChromePool, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if maxSize <= 0 {
		maxSize = 2
	}

	return &ChromePool{
		config:   config,
		browsers: make(chan Client, maxSize),
		maxSize:  maxSize,
	}, nil
}

// Get retrieves a browser from the pool or starts a new one
func (p *ChromePool) Get(ctx context.Context) (Client, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, fmt.Errorf("pool is closed")
	}
	p.mu.RUnlock()

	select {
	case browser := <-p.browsers:
		return browser, nil
	default:
		p.mu.Lock()
		if p.currentSize < p.maxSize {
			browser, err := New(p.config)
			if err != nil {
				p.mu.Unlock()
				return nil, fmt.Errorf("failed to start browser: %w", err)
			}
			p.currentSize++
			p.mu.Unlock()
			return browser, nil
		}
		p.mu.Unlock()

		select {
		case browser := <-p.browsers:
			return browser, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(30 * time.Second):
			return nil, fmt.Errorf("timeout waiting for available browser")
		}
	}
}

// Put returns a browser to the pool
func (p *ChromePool) Put(browser Client) error {
	if browser == nil {
		return fmt.Errorf("cannot put nil browser in pool")
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		browser.Close()
		return fmt.Errorf("pool is closed")
	}

	select {
	case p.browsers <- browser:
		return nil
	default:
		// Pool is full, close the browser
		browser.Close()
		p.mu.Lock()
		p.currentSize--
		p.mu.Unlock()
		return nil
	}
}

// Size returns the number of browsers currently idle in the pool
func (p *ChromePool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.browsers)
}

// TotalSize returns the total number of browsers created
func (p *ChromePool) TotalSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentSize
}

// Close closes all browsers in the pool
func (p *ChromePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.browsers)
	for browser := range p.browsers {
		browser.Close()
	}

	p.currentSize = 0
	return nil
}
