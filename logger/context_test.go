package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback/logger"
)

func TestLogContextMarshalText(t *testing.T) {
	for _, tc := range []struct {
		name     string
		lc       logger.LogContext
		expected string
	}{
		{"Zero-Value", logger.LogContext{}, `{}`},
		{"Data", logger.LogContext{Data: map[string]any{"test": "data"}}, `{"data":{"test":"data"}}`},
		{"Error", logger.LogContext{Error: errors.New("test")}, `{"error":"test"}`},
		{"Caller-Omitted", logger.LogContext{Caller: "main.go:1"}, `{}`},
		{
			"Request",
			logger.LogContext{RequestID: "abc", Route: "home", Stage: "route_matched"},
			`{"request_id":"abc","route":"home","stage":"route_matched"}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			b, err := tc.lc.MarshalText()

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.expected, string(b))
			require.Equal(t, tc.expected, tc.lc.String())
		})
	}
}

func TestLogContextMarshalTextBadData(t *testing.T) {
	// Arrange
	lc := logger.LogContext{Data: map[string]any{"fn": func() {}}}

	// Act
	_, err := lc.MarshalText()

	// Assert
	require.NotNil(t, err)
	require.Contains(t, lc.String(), "error")
}

func TestCurrentCaller(t *testing.T) {
	var actual string
	func() {
		actual = logger.CurrentCaller()
	}()

	require.Contains(t, actual, "logger/context_test.go:")
}
