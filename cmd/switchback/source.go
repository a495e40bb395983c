package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/manifest"
	"github.com/xy-planning-network/switchback/store"
)

// A source is where routes are read from and snapshots written to.
type source struct {
	dir   string
	key   string
	redis string
}

func (s *source) flags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&s.dir, "dir", os.Getenv("ROUTE_SNAPSHOT_PATH"), "directory snapshots are kept in")
	cmd.PersistentFlags().StringVar(&s.key, "key", switchback.EnvVarOrString("SNAPSHOT_KEY", "routes"), "key snapshots are kept under")
	cmd.PersistentFlags().StringVar(&s.redis, "redis", os.Getenv("REDIS_URL"), "Redis URL snapshots are kept at")
}

// store connects to the configured snapshot store.
// Redis is preferred when both are configured.
func (s *source) store() (store.SnapshotStore, func(), error) {
	switch {
	case s.redis != "":
		r, err := store.NewRedisFromURL(s.redis, 0)
		if err != nil {
			return nil, nil, err
		}

		return r, func() { _ = r.Close() }, nil
	case s.dir != "":
		f, err := store.NewFile(s.dir)
		if err != nil {
			return nil, nil, err
		}

		return f, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: one of --dir or --redis is required", switchback.ErrMissingData)
	}
}

// collection compiles the manifests at paths or, if none are given,
// restores the snapshot from the configured store.
func (s *source) collection(ctx context.Context, paths []string) (*collection.Collection, error) {
	if len(paths) > 0 {
		return compile(paths)
	}

	st, done, err := s.store()
	if err != nil {
		return nil, err
	}
	defer done()

	return store.Restore(ctx, st, s.key)
}

// compile builds a collection of the routes in the manifests at paths.
// Targets are not introspected; route dependencies are resolved at boot.
func compile(paths []string) (*collection.Collection, error) {
	b := collection.NewBuilder(nil)
	for _, path := range paths {
		f, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}

		if err := f.Apply(b); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return b.Freeze(), nil
}
