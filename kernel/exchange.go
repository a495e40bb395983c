package kernel

import (
	"context"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/route"
)

// Attribute keys front doors populate on a Request.
const (
	AttrClientIP = "client_ip"
	AttrQuery    = "query"
)

// A Request is what a front door asks the Kernel to handle.
type Request struct {
	// Attributes carries front-door specific values for middleware.
	Attributes map[string]any

	Context context.Context
	Method  string
	Path    string

	// Raw is the front door's own representation of the request, e.g. an *http.Request.
	// A non-nil Raw can be injected into targets.
	Raw any

	// Secure marks the request as arriving over a secure transport.
	Secure bool
}

// An Exchange is the state of one request as it passes through each Stage.
//
// Middleware at every Stage receives the same *Exchange.
type Exchange struct {
	// Err and ErrStage are set before ThrowableCaught runs.
	Err      error
	ErrStage pipeline.Stage

	// Outcome is set once matching has been attempted.
	Outcome collection.Outcome

	Request *Request

	// Result is set once the target has been dispatched.
	Result *dispatch.Result

	// Route and Values are set once a route has been matched and its values bound.
	Route  *route.Definition
	Values []route.Value

	Stage pipeline.Stage
}

// Context is the context of the request being handled.
func (x *Exchange) Context() context.Context {
	if x.Request == nil || x.Request.Context == nil {
		return context.Background()
	}

	return x.Request.Context
}

// SetContext replaces the context of the request being handled.
func (x *Exchange) SetContext(ctx context.Context) {
	if x.Request == nil {
		x.Request = new(Request)
	}

	x.Request.Context = ctx
}

// RouteLabel names the matched route for logs and metrics: its name, or else its path.
func (x *Exchange) RouteLabel() string {
	if x.Route == nil {
		return ""
	}

	if x.Route.Name != "" {
		return x.Route.Name
	}

	return x.Route.Path
}

// LogContext describes x for a logger.Logger.
func (x *Exchange) LogContext(err error) *logger.LogContext {
	return &logger.LogContext{
		Error:     err,
		RequestID: switchback.RequestIDFromContext(x.Context()),
		Route:     x.RouteLabel(),
		Stage:     x.Stage.String(),
	}
}

// Middleware participates in the Pipeline of a Stage.
type Middleware = pipeline.Middleware[*Exchange, *dispatch.Result]

// Handler is the remainder of a Pipeline as seen by Middleware.
type Handler = pipeline.Handler[*Exchange, *dispatch.Result]

// Registry names Middleware so Stages and routes can be configured by name.
type Registry = pipeline.Registry[*Exchange, *dispatch.Result]

// NewRegistry constructs an empty *Registry.
func NewRegistry() *Registry { return pipeline.NewRegistry[*Exchange, *dispatch.Result]() }

// Func adapts an ordinary function into Middleware.
func Func(f func(x *Exchange, next Handler) (*dispatch.Result, error)) Middleware {
	return pipeline.Func[*Exchange, *dispatch.Result](f)
}

// Attribute retrieves the string stored under key, if any.
func (r *Request) Attribute(key string) string {
	if r == nil {
		return ""
	}

	s, _ := r.Attributes[key].(string)
	return s
}
