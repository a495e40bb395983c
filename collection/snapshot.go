package collection

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

const (
	// SnapshotFormat identifies an encoded Collection.
	SnapshotFormat = "switchback.routes"

	// SnapshotVersion is bumped whenever the encoding of a Collection changes.
	SnapshotVersion = 1
)

type snapshot struct {
	Format   string             `msgpack:"format"`
	Version  int                `msgpack:"version"`
	Routes   []route.Definition `msgpack:"routes"`
	Static   []staticEntry      `msgpack:"static"`
	Dynamic  []string           `msgpack:"dynamic"`
	Named    map[string]string  `msgpack:"named"`
	Deferred []target.TypeID    `msgpack:"deferred"`
}

type staticEntry struct {
	Method string `msgpack:"method"`
	Path   string `msgpack:"path"`
	Route  string `msgpack:"route"`
}

// Snapshot encodes c so it can be restored by [Load] without recompiling.
//
// Equal Collections produce equal snapshots.
func (c *Collection) Snapshot() ([]byte, error) {
	s := snapshot{
		Format:   SnapshotFormat,
		Version:  SnapshotVersion,
		Routes:   make([]route.Definition, 0, len(c.all)),
		Dynamic:  make([]string, 0, len(c.dynamic)),
		Static:   make([]staticEntry, 0, len(c.static)),
		Named:    make(map[string]string, len(c.named)),
		Deferred: append(make([]target.TypeID, 0, len(c.deferred)), c.deferred...),
	}

	for _, d := range c.all {
		s.Routes = append(s.Routes, *d)
		if d.Dynamic {
			continue
		}

		for _, m := range d.Methods {
			s.Static = append(s.Static, staticEntry{Method: m, Path: d.Literal(), Route: d.ID})
		}
	}

	for _, d := range c.dynamic {
		s.Dynamic = append(s.Dynamic, d.ID)
	}

	for name, d := range c.named {
		s.Named[name] = d.ID
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	return buf.Bytes(), nil
}

// Load restores a *Collection from the output of [Collection.Snapshot].
//
// Load fails with ErrSnapshotVersion if b was written by an incompatible version.
func Load(b []byte) (*Collection, error) {
	var s snapshot
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot: %s", switchback.ErrNotValid, err)
	}

	if s.Format != SnapshotFormat || s.Version != SnapshotVersion {
		return nil, fmt.Errorf(
			"%w: have %q v%d, want %q v%d",
			ErrSnapshotVersion,
			s.Format,
			s.Version,
			SnapshotFormat,
			SnapshotVersion,
		)
	}

	t := newTables()
	for _, raw := range s.Routes {
		d, err := route.Restore(raw)
		if err != nil {
			return nil, err
		}

		t.all = append(t.all, d)
		t.ids[d.ID] = d
	}

	lookup := func(id string) (*route.Definition, error) {
		d, ok := t.ids[id]
		if !ok {
			return nil, fmt.Errorf("%w: snapshot references unknown route %s", switchback.ErrNotValid, id)
		}

		return d, nil
	}

	for _, e := range s.Static {
		d, err := lookup(e.Route)
		if err != nil {
			return nil, err
		}

		t.static[staticKey(e.Method, e.Path)] = d
	}

	for _, id := range s.Dynamic {
		d, err := lookup(id)
		if err != nil {
			return nil, err
		}

		t.dynamic = append(t.dynamic, d)
	}

	for name, id := range s.Named {
		d, err := lookup(id)
		if err != nil {
			return nil, err
		}

		t.named[name] = d
	}

	t.deferred = append(make([]target.TypeID, 0, len(s.Deferred)), s.Deferred...)
	return newCollection(t), nil
}
