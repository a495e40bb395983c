package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/target"
)

// A Resolver supplies the services a target depends on.
type Resolver interface {
	Resolve(ctx context.Context, id target.TypeID) (reflect.Value, error)
}

// A Provider constructs a deferred service on first use.
//
// The service is a singleton of the Container the Provider is deferred on:
// r resolves from that Container and its parents, never from a request's [Container.Scope],
// and the result, or error, is kept for every later Resolve.
// ctx is the first resolving request's, detached from its cancellation.
type Provider func(ctx context.Context, r Resolver) (any, error)

type deferred struct {
	err     error
	once    sync.Once
	provide Provider
	v       reflect.Value
}

// A Container is a Resolver holding services by TypeID.
//
// A Container built with [Container.Scope] overlays request-specific values
// on top of its parent.
type Container struct {
	mu       sync.RWMutex
	deferred map[target.TypeID]*deferred
	parent   *Container
	values   map[target.TypeID]reflect.Value
}

// NewContainer constructs an empty *Container.
func NewContainer() *Container {
	return &Container{
		deferred: make(map[target.TypeID]*deferred),
		values:   make(map[target.TypeID]reflect.Value),
	}
}

// Set adds v, identified by its dynamic type.
func (c *Container) Set(v any) error {
	if v == nil {
		return fmt.Errorf("%w: cannot set untyped nil", switchback.ErrNotValid)
	}

	return c.SetAs(target.TypeIDOf(reflect.TypeOf(v)), v)
}

// SetAs adds v identified by id, e.g. the TypeID of an interface v implements.
func (c *Container) SetAs(id target.TypeID, v any) error {
	if id == "" || v == nil {
		return fmt.Errorf("%w: type and value are required", switchback.ErrMissingData)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[id] = reflect.ValueOf(v)
	return nil
}

// Bind adds v identified as T.
func Bind[T any](c *Container, v T) error {
	return c.SetAs(target.TypeOf[T](), v)
}

// Defer registers p to construct the service identified by id the first time it is resolved.
func (c *Container) Defer(id target.TypeID, p Provider) error {
	if id == "" || p == nil {
		return fmt.Errorf("%w: type and provider are required", switchback.ErrMissingData)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.deferred[id]; ok {
		return fmt.Errorf("%w: deferred %s", switchback.ErrExists, id)
	}

	c.deferred[id] = &deferred{provide: p}
	return nil
}

// Deferred lists the TypeIDs of services registered with [Container.Defer], sorted.
func (c *Container) Deferred() []target.TypeID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]target.TypeID, 0, len(c.deferred))
	for id := range c.deferred {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Has asserts whether c, or any parent, can resolve id.
func (c *Container) Has(id target.TypeID) bool {
	if id == target.ContextID {
		return true
	}

	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		_, set := cur.values[id]
		_, def := cur.deferred[id]
		cur.mu.RUnlock()

		if set || def {
			return true
		}
	}

	return false
}

// Resolve retrieves the service identified by id, constructing it if deferred.
//
// ctx itself resolves [context.Context].
func (c *Container) Resolve(ctx context.Context, id target.TypeID) (reflect.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if id == target.ContextID {
		return reflect.ValueOf(&ctx).Elem(), nil
	}

	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, set := cur.values[id]
		d, def := cur.deferred[id]
		cur.mu.RUnlock()

		if set {
			return v, nil
		}

		if def {
			d.once.Do(func() {
				var x any
				if x, d.err = d.provide(context.WithoutCancel(ctx), cur); d.err == nil && x == nil {
					d.err = fmt.Errorf("%w: provider returned nil", switchback.ErrUnexpected)
				}

				if d.err == nil {
					d.v = reflect.ValueOf(x)
				}
			})

			if d.err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %s: %s", ErrUnresolvableDependency, id, d.err)
			}

			return d.v, nil
		}
	}

	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnresolvableDependency, id)
}

// Scope creates a child Container holding values and falling back to c.
func (c *Container) Scope(values ...any) (*Container, error) {
	child := NewContainer()
	child.parent = c
	for _, v := range values {
		if err := child.Set(v); err != nil {
			return nil, err
		}
	}

	return child, nil
}
