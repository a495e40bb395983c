package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sync"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/target"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validColumn = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// A Hydrator loads entities for entity-cast route parameters,
// implementing collection.Hydrator.
//
// Models are registered by sample value. Routes may then name the model
// by the TypeID of either the struct or a pointer to it;
// both hydrate into a pointer to a new struct.
type Hydrator struct {
	db     *gorm.DB
	mu     sync.RWMutex
	models map[target.TypeID]reflect.Type
}

// NewHydrator constructs a *Hydrator querying db.
func NewHydrator(db *gorm.DB) *Hydrator {
	return &Hydrator{db: db, models: make(map[target.TypeID]reflect.Type)}
}

// Register makes the struct type of model available for hydration.
// model is a struct or a pointer to one, e.g. new(User).
func (h *Hydrator) Register(models ...any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, model := range models {
		t := reflect.TypeOf(model)
		if t != nil && t.Kind() == reflect.Ptr {
			t = t.Elem()
		}

		if t == nil || t.Kind() != reflect.Struct {
			return fmt.Errorf("%w: %T is not a struct", switchback.ErrNotValid, model)
		}

		h.models[target.TypeIDOf(t)] = t
		h.models[target.TypeIDOf(reflect.PtrTo(t))] = t
	}

	return nil
}

// Entities lists the TypeIDs h can hydrate.
func (h *Hydrator) Entities() []target.TypeID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]target.TypeID, 0, len(h.models))
	for id := range h.models {
		ids = append(ids, id)
	}

	return ids
}

// Hydrate retrieves the first record of type entity whose column equals value.
//
// If no record matches, Hydrate returns switchback.ErrNotExist.
// This includes values PostgreSQL cannot compare against column,
// such as letters against an integer column.
func (h *Hydrator) Hydrate(ctx context.Context, entity target.TypeID, column, value string) (any, error) {
	h.mu.RLock()
	t, ok := h.models[entity]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no model registered for %s", switchback.ErrBadConfig, entity)
	}

	if column == "" {
		column = "id"
	}

	if !validColumn.MatchString(column) {
		return nil, fmt.Errorf("%w: column %q", switchback.ErrNotValid, column)
	}

	if h.db == nil {
		return nil, fmt.Errorf("%w: no database", switchback.ErrBadConfig)
	}

	dest := reflect.New(t).Interface()
	err := h.db.
		WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Value: value}).
		Take(dest).
		Error
	switch {
	case err == nil:
		return dest, nil

	case errors.Is(err, gorm.ErrRecordNotFound), errSQLSyntax.MatchString(err.Error()):
		return nil, fmt.Errorf("%w: %s where %s = %q", switchback.ErrNotExist, entity, column, value)

	case errUndefinedColumn.MatchString(err.Error()):
		return nil, fmt.Errorf("%w: %s has no column %q", switchback.ErrBadConfig, entity, column)

	default:
		return nil, fmt.Errorf("%w: hydrating %s: %s", switchback.ErrUnexpected, entity, err)
	}
}
