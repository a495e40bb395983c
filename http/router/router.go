package router

import (
	"bytes"
	"net/http"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go/http"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/middleware"
)

// Router routes requests to the kernel it encloses.
type Router struct {
	Env    switchback.Environment
	cors   []handlers.CORSOption
	k      *kernel.Kernel
	logger logger.Logger
	pool   sync.Pool
	r      *mux.Router

	once    sync.Once
	handler http.Handler
}

// An Option configures a *Router.
type Option func(*Router)

// WithCORS sets "Access-Control-Allowed" style headers on responses to requests from base.
func WithCORS(base string) Option {
	return func(r *Router) {
		r.cors = []handlers.CORSOption{
			handlers.AllowedHeaders([]string{
				"Content-Type",
				middleware.RequestIDHeader,
			}),
			handlers.AllowedOrigins([]string{base}),
			handlers.AllowedMethods([]string{
				http.MethodDelete,
				http.MethodGet,
				http.MethodHead,
				http.MethodOptions,
				http.MethodPatch,
				http.MethodPost,
				http.MethodPut,
			}),
		}
	}
}

// WithEnv sets the environment the *Router runs in.
func WithEnv(env switchback.Environment) Option { return func(r *Router) { r.Env = env } }

// WithLogger sets the logger.Logger recovered panics and write failures are logged with.
func WithLogger(l logger.Logger) Option { return func(r *Router) { r.logger = l } }

// New constructs a *Router for k.
func New(k *kernel.Kernel, opts ...Option) *Router {
	r := &Router{
		Env:    switchback.Development,
		k:      k,
		logger: logger.Noop{},
		pool:   sync.Pool{New: func() any { return new(bytes.Buffer) }},
		r:      mux.NewRouter(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Handle mounts h at path, ahead of the kernel.
//
// e.g., r.Handle("/metrics", middleware.Handler(reg))
func (r *Router) Handle(path string, h http.Handler, methods ...string) {
	route := r.r.Handle(path, h)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.once.Do(r.build)
	r.handler.ServeHTTP(w, req)
}

func (r *Router) build() {
	// NOTE: mounted last so it only sees what Handle did not claim
	r.r.PathPrefix("/").Handler(http.HandlerFunc(r.serveKernel))

	var h http.Handler = r.r
	if len(r.cors) > 0 {
		h = handlers.CORS(r.cors...)(h)
	}

	if !r.Env.IsDevelopment() {
		h = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(h)
	}

	r.handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{r.logger}),
		handlers.PrintRecoveryStack(r.Env.IsDevelopment()),
	)(h)
}

func (r *Router) serveKernel(w http.ResponseWriter, req *http.Request) {
	res := r.k.Handle(NewRequest(req))
	if err := r.write(w, res); err != nil {
		r.logger.Error("failed writing result", &logger.LogContext{
			Error:     err,
			RequestID: switchback.RequestIDFromContext(req.Context()),
		})
	}
}

// NewRequest converts req into a kernel.Request.
//
// The kernel.Request carries req as Raw, the client's IP address and req's query values.
// It is Secure when req arrived over TLS or a proxy says it did.
func NewRequest(req *http.Request) *kernel.Request {
	return &kernel.Request{
		Attributes: map[string]any{
			kernel.AttrClientIP: middleware.ClientIP(req.Header, req.RemoteAddr),
			kernel.AttrQuery:    req.URL.Query(),
		},
		Context: req.Context(),
		Method:  req.Method,
		Path:    req.URL.Path,
		Raw:     req,
		Secure:  req.TLS != nil || strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https"),
	}
}

type recoveryLogger struct {
	l logger.Logger
}

func (rl recoveryLogger) Println(v ...any) {
	var err error
	for _, x := range v {
		if e, ok := x.(error); ok {
			err = e
		}
	}

	rl.l.Error("recovered from panic", &logger.LogContext{Error: err, Data: map[string]any{"panic": v}})
}
