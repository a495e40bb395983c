package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xy-planning-network/switchback"
)

// A Registry maps names to Middleware so they can be configured by name.
type Registry[C, R any] struct {
	mu    sync.RWMutex
	named map[string]Middleware[C, R]
}

// NewRegistry constructs an empty *Registry.
func NewRegistry[C, R any]() *Registry[C, R] {
	return &Registry[C, R]{named: make(map[string]Middleware[C, R])}
}

// Register names mw.
func (r *Registry[C, R]) Register(name string, mw Middleware[C, R]) error {
	if name == "" || mw == nil {
		return fmt.Errorf("%w: middleware name and value are required", switchback.ErrMissingData)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.named[name]; ok {
		return fmt.Errorf("%w: middleware %q", switchback.ErrExists, name)
	}

	r.named[name] = mw
	return nil
}

// Lookup retrieves the Middleware registered under each of names, in order.
func (r *Registry[C, R]) Lookup(names ...string) ([]Middleware[C, R], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mws := make([]Middleware[C, R], 0, len(names))
	for _, name := range names {
		mw, ok := r.named[name]
		if !ok {
			return nil, fmt.Errorf("%w: middleware %q", switchback.ErrNotExist, name)
		}

		mws = append(mws, mw)
	}

	return mws, nil
}

// Names lists registered names, sorted.
func (r *Registry[C, R]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.named))
	for name := range r.named {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
