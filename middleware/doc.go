/*
Package middleware provides kernel.Middleware for common concerns.

Each is meant for a particular Stage:

	RequestReceived:  RequestID, RateLimit, LogRequest, Trace, (*Metrics).Observe
	RouteNotMatched:  RedirectNotFound
	ThrowableCaught:  ReportError
	any:              (*Metrics).Count

Middleware are registered by name on a kernel.Registry so Stages and routes can refer to them:

	reg := kernel.NewRegistry()
	reg.Register("request_id", middleware.RequestID())
	reg.Register("rate_limit", middleware.RateLimit(middleware.NewVisitors(5, 20)))
	reg.Register("log_request", middleware.LogRequest(log))
	reg.Register("report_error", middleware.ReportError(env))
*/
package middleware
