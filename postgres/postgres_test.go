package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
)

func TestBuildCxnStr(t *testing.T) {
	tcs := []struct {
		name     string
		config   *CxnConfig
		expected string
	}{
		{
			"url",
			&CxnConfig{URL: "postgres://u:p@db:5432/app", Host: "ignored"},
			"postgres://u:p@db:5432/app",
		},
		{
			"default-sslmode",
			&CxnConfig{Host: "db", Port: "5432", Name: "app", User: "u", Password: "p"},
			"host=db port=5432 dbname=app user=u password=p sslmode=prefer",
		},
		{
			"sslmode",
			&CxnConfig{Host: "db", Port: "5432", Name: "app", User: "u", Password: "p", SSLMode: "require"},
			"host=db port=5432 dbname=app user=u password=p sslmode=require",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, buildCxnStr(tc.config))
		})
	}
}

func TestNewCxnConfig(t *testing.T) {
	// Arrange
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_HOST", "")
	t.Setenv("DATABASE_NAME", "app")
	t.Setenv("DATABASE_USER", "switchback")

	// Act
	config := NewCxnConfig()

	// Assert
	require.Equal(t, "localhost", config.Host)
	require.Equal(t, "5432", config.Port)
	require.Equal(t, "app", config.Name)
	require.Equal(t, "switchback", config.User)
	require.Nil(t, config.Valid())
}

func TestConnectBadConfig(t *testing.T) {
	tcs := []*CxnConfig{nil, {Host: "db"}}

	for _, config := range tcs {
		_, err := Connect(config, switchback.Testing)
		require.ErrorIs(t, err, switchback.ErrBadConfig)
	}
}
