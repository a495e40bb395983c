package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
)

// Vars exposes the matched route's present values, as captured from the path,
// through mux.Vars on the *http.Request targets are injected with.
//
// Vars belongs in RouteMatched, before the target is dispatched.
func Vars() kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		req, ok := x.Request.Raw.(*http.Request)
		if !ok {
			return next(x)
		}

		vars := make(map[string]string, len(x.Outcome.Captures))
		for _, c := range x.Outcome.Captures {
			if c.Present {
				vars[c.Param.Name] = c.Raw
			}
		}

		x.Request.Raw = mux.SetURLVars(req.WithContext(x.Context()), vars)
		return next(x)
	})
}
