package store

import (
	"context"

	"github.com/xy-planning-network/switchback/collection"
)

// Save snapshots c and stores it under key.
func Save(ctx context.Context, s SnapshotStore, key string, c *collection.Collection) error {
	b, err := c.Snapshot()
	if err != nil {
		return err
	}

	return s.Set(ctx, key, b)
}

// Restore loads the collection stored under key.
func Restore(ctx context.Context, s SnapshotStore, key string) (*collection.Collection, error) {
	b, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return collection.Load(b)
}
