package middleware

import (
	"net/url"
	"strings"

	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/logger"
)

// LogRequest logs the request's method, path and originating IP address
// using the enclosed implementation of logger.Logger.
//
// LogRequest scrubs the values for the following query keys:
// - password
//
// if logger.Logger is nil, LogRequest does nothing.
func LogRequest(ls logger.Logger) kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		if ls == nil {
			return next(x)
		}

		uri := x.Request.Path
		if q, ok := x.Request.Attributes[kernel.AttrQuery].(url.Values); ok && len(q) > 0 {
			q = cloneValues(q)
			if val := q.Get("password"); val != "" {
				q.Set("password", "xxxxxxx")
			}

			uri += "?" + q.Encode()
		}

		strs := []string{x.Request.Method, uri}
		if ip := x.Request.Attribute(kernel.AttrClientIP); ip != "" {
			strs = append([]string{ip}, strs...)
		}

		ls.Info(strings.Join(strs, " "), x.LogContext(nil))
		return next(x)
	})
}

func cloneValues(q url.Values) url.Values {
	c := make(url.Values, len(q))
	for k, v := range q {
		c[k] = append([]string(nil), v...)
	}

	return c
}
