package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
)

// Metrics records Prometheus metrics about requests handled by a kernel.Kernel.
type Metrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	stages   *prometheus.CounterVec
}

// NewMetrics registers switchback's metrics with reg.
// Metrics already registered with reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "switchback",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a request, from receipt to result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchback",
			Name:      "requests_total",
			Help:      "Requests handled, by route and result status.",
		}, []string{"method", "route", "status"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchback",
			Name:      "stage_total",
			Help:      "Times each lifecycle stage was entered.",
		}, []string{"stage"}),
	}

	var err error
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}

	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}

	if m.stages, err = register(reg, m.stages); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return c, err
}

// Observe times each request and counts it by route and status.
// Observe belongs at the start of RequestReceived.
func (m *Metrics) Observe() kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		start := time.Now()
		res, err := next(x)

		status := http.StatusInternalServerError
		if err == nil && res != nil {
			status = res.Status
		}

		route := x.RouteLabel()
		if route == "" {
			route = "unmatched"
		}

		m.duration.WithLabelValues(x.Request.Method, route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(x.Request.Method, route, strconv.Itoa(status)).Inc()
		return res, err
	})
}

// Count counts entries into whatever Stage it is run at.
func (m *Metrics) Count() kernel.Middleware {
	return kernel.Func(func(x *kernel.Exchange, next kernel.Handler) (*dispatch.Result, error) {
		m.stages.WithLabelValues(x.Stage.String()).Inc()
		return next(x)
	})
}

// Handler exposes metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
