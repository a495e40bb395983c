package middleware_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTrace(t *testing.T) {
	// Arrange
	x := newExchange("GET", "/users/1")
	var found bool

	// Act
	res := run(t, middleware.Trace(noop.NewTracerProvider()), x, func(x *kernel.Exchange) (*dispatch.Result, error) {
		found = trace.SpanFromContext(x.Context()) != nil
		return dispatch.OK("ok"), nil
	})

	// Assert
	require.True(t, found)
	require.Equal(t, dispatch.OK("ok"), res)
}

func TestTraceGlobalProvider(t *testing.T) {
	require.NotNil(t, run(t, middleware.Trace(nil), newExchange("GET", "/"), ok))
}
