package store

import (
	"context"
	"sync"

	"github.com/xy-planning-network/switchback"
)

//go:generate mockgen -destination=../internal/mocks/snapshot_store.go -package=mocks . SnapshotStore

var (
	_ SnapshotStore = NewMap()
	_ SnapshotStore = File{}
	_ SnapshotStore = Redis{}
)

// A SnapshotStore saves and retrieves snapshot bytes by key.
//
// Get returns an error wrapping switchback.ErrNotExist when nothing is stored under key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, b []byte) error
}

// A Map stores snapshots in memory.
//
// Process restarts reset a Map.
// A Map ought not be used to share snapshots between processes.
type Map struct {
	mu  sync.Mutex
	val map[string][]byte
}

// NewMap constructs an empty *Map.
func NewMap() *Map { return &Map{val: make(map[string][]byte)} }

// Get retrieves a copy of the bytes stored under key.
func (m *Map) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, switchback.ErrMissingData
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		m.mu.Lock()
		defer m.mu.Unlock()

		v, ok := m.val[key]
		if !ok {
			return nil, switchback.ErrNotExist
		}

		return append([]byte(nil), v...), nil
	}
}

// Set overwrites the bytes stored under key.
func (m *Map) Set(ctx context.Context, key string, b []byte) error {
	if key == "" {
		return switchback.ErrMissingData
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		m.mu.Lock()
		defer m.mu.Unlock()

		m.val[key] = append([]byte(nil), b...)
		return nil
	}
}
