package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xy-planning-network/switchback"
)

const fileExt = ".snapshot"

// A File stores each snapshot as a file in Dir named after its key.
type File struct {
	Dir string
}

// NewFile constructs a File rooted at dir, creating dir if needed.
func NewFile(dir string) (File, error) {
	if dir == "" {
		return File{}, fmt.Errorf("%w: no directory", switchback.ErrBadConfig)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return File{}, fmt.Errorf("%w: %s", switchback.ErrBadConfig, err)
	}

	return File{Dir: dir}, nil
}

// Path is the file key is stored in.
func (f File) Path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: key %q", switchback.ErrNotValid, key)
	}

	return filepath.Join(f.Dir, key+fileExt), nil
}

// Get reads the file key is stored in.
func (f File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := f.Path(key)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", switchback.ErrNotExist, p)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	return b, nil
}

// Set writes b to a temporary file and renames it over the file key is stored in,
// so readers never observe a partial snapshot.
func (f File) Set(ctx context.Context, key string, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := f.Path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.Dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	return nil
}
