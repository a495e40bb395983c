package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/pipeline"
)

func newExchange(method, path string) *kernel.Exchange {
	return &kernel.Exchange{
		Request: &kernel.Request{
			Attributes: make(map[string]any),
			Context:    context.Background(),
			Method:     method,
			Path:       path,
		},
		Stage: pipeline.RequestReceived,
	}
}

func ok(x *kernel.Exchange) (*dispatch.Result, error) { return dispatch.OK("ok"), nil }

func run(t *testing.T, mw kernel.Middleware, x *kernel.Exchange, terminal kernel.Handler) *dispatch.Result {
	res, err := pipeline.New(x.Stage, mw).Run(x, terminal)
	require.Nil(t, err)
	return res
}
