package middleware

import (
	"net/http"
	"net/url"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
)

// ForceHTTPS redirects insecure HTTP requests to HTTPS if the environment is not development.
// ForceHTTPS belongs in RequestReceived.
//
// Requests not carrying an *http.Request, such as console commands, are left alone.
func ForceHTTPS(env switchback.Environment) kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		r, ok := x.Request.Raw.(*http.Request)
		if !ok || x.Request.Secure || env.IsDevelopment() {
			return next(x)
		}

		u := new(url.URL)
		*u = *r.URL
		u.Scheme = "https"
		u.Host = r.Host

		return &dispatch.Result{Status: http.StatusPermanentRedirect, Location: u.String()}, nil
	})
}
