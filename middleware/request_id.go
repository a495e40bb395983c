package middleware

import (
	"github.com/google/uuid"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
)

// RequestIDHeader carries the request ID on the result.
const RequestIDHeader = "X-Request-Id"

// RequestID adds a uuid to the request context, unless one is already there,
// and echoes it on the result.
func RequestID() kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		id := switchback.RequestIDFromContext(x.Context())
		if id == "" {
			id = uuid.NewString()
			x.SetContext(switchback.NewRequestIDContext(x.Context(), id))
		}

		res, err := next(x)
		if res != nil {
			res.WithHeader(RequestIDHeader, id)
		}

		return res, err
	})
}
