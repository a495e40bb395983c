package middleware

import (
	"github.com/getsentry/sentry-go"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/logger"
)

// ReportError sends the error being handled in ThrowableCaught to Sentry.
//
// In development, ReportError does nothing.
func ReportError(env switchback.Environment) kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		if env.IsDevelopment() || x.Err == nil {
			return next(x)
		}

		hub := sentry.CurrentHub().Clone()
		hub.WithScope(func(scope *sentry.Scope) {
			lc := x.LogContext(x.Err)
			lc.Stage = x.ErrStage.String()
			logger.Scope(scope, lc)
			hub.CaptureException(x.Err)
		})

		return next(x)
	})
}
