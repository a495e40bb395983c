package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/store"
)

func TestFile(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "snapshots")
	f, err := store.NewFile(dir)
	require.Nil(t, err)

	// Act
	_, missing := f.Get(ctx, "app")
	setErr := f.Set(ctx, "app", []byte("routes"))
	actual, getErr := f.Get(ctx, "app")

	// Assert
	require.ErrorIs(t, missing, switchback.ErrNotExist)
	require.Nil(t, setErr)
	require.Nil(t, getErr)
	require.Equal(t, []byte("routes"), actual)

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "app.snapshot", entries[0].Name())
}

func TestFileBadKeys(t *testing.T) {
	tcs := []string{"", ".", "..", "a/b", `a\b`}

	for _, key := range tcs {
		t.Run(key, func(t *testing.T) {
			// Arrange
			f := store.File{Dir: t.TempDir()}

			// Act
			err := f.Set(context.Background(), key, []byte("x"))

			// Assert
			require.ErrorIs(t, err, switchback.ErrNotValid)
		})
	}
}

func TestNewFileNoDir(t *testing.T) {
	_, err := store.NewFile("")
	require.ErrorIs(t, err, switchback.ErrBadConfig)
}
