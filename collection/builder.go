package collection

import (
	"fmt"
	"sync"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

// A Builder accumulates routes until frozen into a [*Collection].
type Builder struct {
	mu       sync.Mutex
	frozen   bool
	in       route.Introspector
	logger   logger.Logger
	tables
}

// A BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger.Logger routes are logged to as they are added.
func WithLogger(l logger.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder constructs a *Builder compiling routes with in, which may be nil.
func NewBuilder(in route.Introspector, opts ...BuilderOption) *Builder {
	b := &Builder{in: in, logger: logger.Noop{}, tables: newTables()}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// AddRoute compiles def and adds it.
//
// Adding a route identical to one already added is a no-op returning the original.
// AddRoute fails once the Builder is frozen, if def's name is taken,
// or if def would shadow a route accepting the same method at the same path.
func (b *Builder) AddRoute(def route.Definition) (*route.Definition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return nil, fmt.Errorf("%w: cannot add %s", switchback.ErrFrozen, def.Path)
	}

	d, err := route.Build(def, b.in)
	if err != nil {
		b.logger.Error("failed compiling route", &logger.LogContext{Error: err, Route: def.Path})
		return nil, err
	}

	if existing, ok := b.ids[d.ID]; ok {
		return existing, nil
	}

	if err := b.conflicts(d); err != nil {
		b.logger.Error("failed adding route", &logger.LogContext{Error: err, Route: d.Path})
		return nil, err
	}

	b.insert(d)
	b.logger.Debug("added route", &logger.LogContext{
		Route: d.Path,
		Data:  map[string]any{"id": d.ID, "methods": d.Methods, "name": d.Name, "target": d.Target.String()},
	})

	return d, nil
}

// Defer marks ids as services a container constructs lazily, on first use.
func (b *Builder) Defer(ids ...target.TypeID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return fmt.Errorf("%w: cannot defer %v", switchback.ErrFrozen, ids)
	}

	for _, id := range ids {
		if !containsType(b.deferred, id) {
			b.deferred = append(b.deferred, id)
		}
	}

	return nil
}

// Freeze stops b accepting routes and returns the resulting *Collection.
// Calling Freeze again returns an equivalent *Collection.
func (b *Builder) Freeze() *Collection {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frozen = true
	return newCollection(b.tables.clone())
}

func (b *Builder) conflicts(d *route.Definition) error {
	if d.Name != "" {
		if _, ok := b.named[d.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
		}
	}

	for _, m := range d.Methods {
		if !d.Dynamic {
			if _, ok := b.static[staticKey(m, d.Literal())]; ok {
				return fmt.Errorf("%w: %s %s", switchback.ErrExists, m, d.Path)
			}

			continue
		}

		for _, other := range b.dynamic {
			if other.Pattern == d.Pattern && other.Allows(m) {
				return fmt.Errorf("%w: %s %s", switchback.ErrExists, m, d.Path)
			}
		}
	}

	return nil
}

func containsType(ids []target.TypeID, id target.TypeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}

	return false
}
