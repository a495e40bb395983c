package middleware

import (
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
)

// RedirectNotFound sends requests matching no route to to.
// Requests whose method is not allowed are left alone.
// RedirectNotFound belongs in RouteNotMatched.
func RedirectNotFound(to string) kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		if x.Outcome.Kind != collection.NotFound || x.Request.Path == to {
			return next(x)
		}

		return dispatch.Redirect(to, false), nil
	})
}
