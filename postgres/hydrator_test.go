package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/postgres"
	"github.com/xy-planning-network/switchback/target"
	pg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type User struct {
	ID    int64
	Email string
}

// dryRun builds queries without a database to run them against.
func dryRun(t *testing.T) *gorm.DB {
	db, err := gorm.Open(pg.Open("host=localhost dbname=switchback"), &gorm.Config{
		DisableAutomaticPing: true,
		DryRun:               true,
	})
	require.Nil(t, err)

	return db
}

func TestHydratorRegister(t *testing.T) {
	// Arrange
	h := postgres.NewHydrator(nil)

	// Act
	err := h.Register(new(User))
	bad := h.Register(42)

	// Assert
	require.Nil(t, err)
	require.ErrorIs(t, bad, switchback.ErrNotValid)
	require.ElementsMatch(t, []target.TypeID{target.TypeOf[User](), target.TypeOf[*User]()}, h.Entities())
}

func TestHydrate(t *testing.T) {
	// Arrange
	h := postgres.NewHydrator(dryRun(t))
	require.Nil(t, h.Register(User{}))

	// Act
	v, err := h.Hydrate(context.Background(), target.TypeOf[*User](), "email", "ada@example.com")

	// Assert
	require.Nil(t, err)
	require.IsType(t, new(User), v)
}

func TestHydrateErrors(t *testing.T) {
	tcs := []struct {
		name   string
		entity target.TypeID
		column string
		err    error
	}{
		{"unregistered", target.TypeOf[*target.Target](), "id", switchback.ErrBadConfig},
		{"injection", target.TypeOf[*User](), "id; DROP TABLE users", switchback.ErrNotValid},
		{"upper", target.TypeOf[*User](), "Email", switchback.ErrNotValid},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			h := postgres.NewHydrator(dryRun(t))
			require.Nil(t, h.Register(new(User)))

			// Act
			_, err := h.Hydrate(context.Background(), tc.entity, tc.column, "1")

			// Assert
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestHydrateNoDatabase(t *testing.T) {
	// Arrange
	h := postgres.NewHydrator(nil)
	require.Nil(t, h.Register(new(User)))

	// Act
	_, err := h.Hydrate(context.Background(), target.TypeOf[User](), "", "1")

	// Assert
	require.ErrorIs(t, err, switchback.ErrBadConfig)
}
