package ranger

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/http/router"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/middleware"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/store"
)

const (
	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar  = "LOG_LEVEL"
	sentryDsnEnvVar = "SENTRY_DSN"

	// Route defaults
	manifestEnvVar = "ROUTE_MANIFEST"

	// Snapshot defaults
	redisURLEnvVar        = "REDIS_URL"
	snapshotPathEnvVar    = "ROUTE_SNAPSHOT_PATH"
	snapshotKeyEnvVar     = "SNAPSHOT_KEY"
	DefaultSnapshotKey    = "routes"
	snapshotRebuildEnvVar = "SNAPSHOT_REBUILD"
	snapshotTTLEnvVar     = "SNAPSHOT_TTL"

	// Rate limit defaults
	rateLimitRPSEnvVar    = "RATE_LIMIT_RPS"
	DefaultRateLimitRPS   = 10
	rateLimitBurstEnvVar  = "RATE_LIMIT_BURST"
	DefaultRateLimitBurst = 20

	// Web server defaults
	DefaultPort               = ":3000"
	portEnvVar                = "PORT"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second
)

// Names default middleware are registered under.
const (
	ForceHTTPSMiddleware  = "force_https"
	LogRequestMiddleware  = "log_request"
	MetricsMiddleware     = "metrics"
	RateLimitMiddleware   = "rate_limit"
	ReportErrorMiddleware = "report_error"
	RequestIDMiddleware   = "request_id"
	TraceMiddleware       = "trace"
	VarsMiddleware        = "vars"
)

// defaultOpts are applied before any RangerOption passed to New.
// Their followups fill in whatever those RangerOptions leave unset.
func defaultOpts() []RangerOption {
	return []RangerOption{
		WithEnv(""),
		withDefaults(),
	}
}

// defaultLogger constructs a logger.Logger configured for env,
// shipping errors to Sentry when SENTRY_DSN is set.
func defaultLogger(env switchback.Environment) logger.Logger {
	l := logger.New(
		logger.WithEnv(env.String()),
		logger.WithLevel(switchback.EnvVarOrLogLevel(logLevelEnvVar, logger.LogLevelInfo)),
		logger.WithLogger(log.New(os.Stdout, "", log.LstdFlags)),
	)

	if dsn := os.Getenv(sentryDsnEnvVar); dsn != "" {
		return logger.NewSentryLogger(l, dsn)
	}

	return l
}

// defaultMiddleware registers, in reg, the middleware every Ranger offers by name,
// skipping any name already taken.
func defaultMiddleware(reg *kernel.Registry, env switchback.Environment, l logger.Logger) error {
	taken := make(map[string]bool)
	for _, name := range reg.Names() {
		taken[name] = true
	}

	for name, mw := range map[string]kernel.Middleware{
		ForceHTTPSMiddleware: middleware.ForceHTTPS(env),
		LogRequestMiddleware: middleware.LogRequest(l),
		RateLimitMiddleware: middleware.RateLimit(middleware.NewVisitors(
			switchback.EnvVarOrFloat(rateLimitRPSEnvVar, DefaultRateLimitRPS),
			switchback.EnvVarOrInt(rateLimitBurstEnvVar, DefaultRateLimitBurst),
		)),
		ReportErrorMiddleware: middleware.ReportError(env),
		RequestIDMiddleware:   middleware.RequestID(),
		VarsMiddleware:        router.Vars(),
	} {
		if taken[name] {
			continue
		}

		if err := reg.Register(name, mw); err != nil {
			return err
		}
	}

	return nil
}

// defaultStages lists the middleware run at each Stage unless configured otherwise.
// Tracing and metrics lead RequestReceived when registered.
func defaultStages(reg *kernel.Registry) map[pipeline.Stage][]string {
	registered := make(map[string]bool)
	for _, name := range reg.Names() {
		registered[name] = true
	}

	var received []string
	for _, name := range []string{TraceMiddleware, MetricsMiddleware} {
		if registered[name] {
			received = append(received, name)
		}
	}

	return map[pipeline.Stage][]string{
		pipeline.RequestReceived: append(received, RequestIDMiddleware, LogRequestMiddleware, RateLimitMiddleware),
		pipeline.RouteMatched:    {VarsMiddleware},
		pipeline.ThrowableCaught: {ReportErrorMiddleware},
	}
}

// defaultSnapshotStore connects to Redis when REDIS_URL is set,
// or else to files under ROUTE_SNAPSHOT_PATH when that is set.
// Otherwise, no snapshots are kept.
func defaultSnapshotStore() (store.SnapshotStore, error) {
	if url := os.Getenv(redisURLEnvVar); url != "" {
		return store.NewRedisFromURL(url, switchback.EnvVarOrDuration(snapshotTTLEnvVar, 0))
	}

	if dir := os.Getenv(snapshotPathEnvVar); dir != "" {
		return store.NewFile(dir)
	}

	return nil, nil
}

// defaultManifests lists the files named in ROUTE_MANIFEST.
func defaultManifests() []string {
	var paths []string
	for _, p := range strings.Split(os.Getenv(manifestEnvVar), ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	return paths
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context) *http.Server {
	port := switchback.EnvVarOrString(portEnvVar, DefaultPort)
	if port[0] != ':' {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		IdleTimeout:  switchback.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  switchback.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: switchback.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}
