package middleware

import (
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xy-planning-network/switchback"

// Trace starts a span for each request, ending it once a result is produced.
// Trace belongs in RequestReceived.
//
// If tp is nil, the global TracerProvider is used.
func Trace(tp trace.TracerProvider) kernel.Middleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	tracer := tp.Tracer(tracerName)
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		ctx, span := tracer.Start(
			x.Context(),
			"switchback.request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("switchback.method", x.Request.Method),
				attribute.String("switchback.path", x.Request.Path),
			),
		)
		defer span.End()

		x.SetContext(ctx)
		res, err := next(x)

		if id := switchback.RequestIDFromContext(x.Context()); id != "" {
			span.SetAttributes(attribute.String("switchback.request_id", id))
		}

		if route := x.RouteLabel(); route != "" {
			span.SetAttributes(attribute.String("switchback.route", route))
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}

		if res != nil {
			span.SetAttributes(attribute.Int("switchback.status", res.Status))
		}

		span.SetStatus(codes.Ok, "")
		return res, nil
	})
}
