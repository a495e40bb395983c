package kernel

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/pipeline"
)

type stagePipeline = pipeline.Pipeline[*Exchange, *dispatch.Result]

// routeStages are the Stages at which a route may run its own middleware.
var routeStages = map[pipeline.Stage]bool{
	pipeline.RouteMatched:    true,
	pipeline.RouteDispatched: true,
	pipeline.SendingResult:   true,
}

// A Kernel handles requests: matching them to routes, dispatching to targets,
// and running the Pipeline of each Stage along the way.
//
// A Kernel is built once and is safe for concurrent use.
type Kernel struct {
	collection *collection.Collection
	container  *dispatch.Container
	dispatcher *dispatch.Dispatcher
	hydrator   collection.Hydrator
	logger     logger.Logger
	registry   *Registry
	names      map[pipeline.Stage][]string
	direct     map[pipeline.Stage][]Middleware

	global map[pipeline.Stage]*stagePipeline
	routes map[string]map[pipeline.Stage]*stagePipeline
}

// New constructs a *Kernel serving the routes in c.
//
// Every Pipeline is built here; naming unregistered middleware is an error.
func New(c *collection.Collection, d *dispatch.Dispatcher, opts ...Option) (*Kernel, error) {
	if c == nil || d == nil {
		return nil, fmt.Errorf("%w: collection and dispatcher are required", switchback.ErrMissingData)
	}

	k := &Kernel{
		collection: c,
		container:  dispatch.NewContainer(),
		dispatcher: d,
		logger:     logger.Noop{},
		registry:   NewRegistry(),
		names:      make(map[pipeline.Stage][]string),
		direct:     make(map[pipeline.Stage][]Middleware),
		global:     make(map[pipeline.Stage]*stagePipeline),
		routes:     make(map[string]map[pipeline.Stage]*stagePipeline),
	}

	for _, opt := range opts {
		if err := opt(k); err != nil {
			return nil, err
		}
	}

	if err := k.build(); err != nil {
		return nil, err
	}

	return k, nil
}

func (k *Kernel) build() error {
	for _, stage := range pipeline.Stages() {
		mws, err := k.registry.Lookup(k.names[stage]...)
		if err != nil {
			return fmt.Errorf("%w: stage %s: %s", switchback.ErrBadConfig, stage, err)
		}

		k.global[stage] = pipeline.New(stage, append(mws, k.direct[stage]...)...)
	}

	for _, def := range k.collection.Routes() {
		if len(def.Middleware) == 0 {
			continue
		}

		stages := make(map[pipeline.Stage]*stagePipeline)
		for stage, names := range def.Middleware {
			if !routeStages[stage] {
				return fmt.Errorf("%w: route %s: middleware cannot run at %s", switchback.ErrBadConfig, def.Path, stage)
			}

			mws, err := k.registry.Lookup(names...)
			if err != nil {
				return fmt.Errorf("%w: route %s: %s", switchback.ErrBadConfig, def.Path, err)
			}

			stages[stage] = k.global[stage].With(mws...)
		}

		k.routes[def.ID] = stages
	}

	return nil
}

// Collection exposes the routes k serves.
func (k *Kernel) Collection() *collection.Collection { return k.collection }

// Container exposes the services k injects.
func (k *Kernel) Container() *dispatch.Container { return k.container }

// Handle runs req through every Stage, always producing a *dispatch.Result.
func (k *Kernel) Handle(req *Request) *dispatch.Result {
	x := &Exchange{Request: req}

	res, err := k.received(x)
	if err != nil {
		res = k.caught(x, err)
	} else if res, err = k.sending(x, res); err != nil {
		res = k.caught(x, err)
	}

	k.terminated(x, res)
	return res
}

func (k *Kernel) pipeline(x *Exchange, stage pipeline.Stage) *stagePipeline {
	x.Stage = stage
	if x.Route != nil {
		if p, ok := k.routes[x.Route.ID][stage]; ok {
			return p
		}
	}

	return k.global[stage]
}

func (k *Kernel) received(x *Exchange) (res *dispatch.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicked(r)
		}
	}()

	return k.pipeline(x, pipeline.RequestReceived).Run(x, k.match)
}

func (k *Kernel) match(x *Exchange) (*dispatch.Result, error) {
	x.Outcome = k.collection.Match(x.Request.Method, x.Request.Path)
	if x.Outcome.Kind == collection.Matched && x.Outcome.Route.Secure && !x.Request.Secure {
		x.Outcome = collection.Outcome{Kind: collection.NotFound}
	}

	if x.Outcome.Kind != collection.Matched {
		return k.pipeline(x, pipeline.RouteNotMatched).Run(x, notMatched)
	}

	values, err := collection.Bind(x.Context(), x.Outcome, k.hydrator)
	if errors.Is(err, switchback.ErrNotExist) {
		x.Outcome = collection.Outcome{Kind: collection.NotFound}
		return k.pipeline(x, pipeline.RouteNotMatched).Run(x, notMatched)
	}

	if err != nil {
		return nil, err
	}

	x.Route, x.Values = x.Outcome.Route, values
	return k.pipeline(x, pipeline.RouteMatched).Run(x, k.dispatch)
}

func (k *Kernel) dispatch(x *Exchange) (*dispatch.Result, error) {
	values := []any{x.Request}
	if x.Request.Raw != nil {
		values = append(values, x.Request.Raw)
	}

	scope, err := k.container.Scope(values...)
	if err != nil {
		return nil, err
	}

	res, err := k.dispatcher.Dispatch(x.Context(), x.Route, x.Values, scope)
	if err != nil {
		return nil, err
	}

	x.Result = res
	return k.pipeline(x, pipeline.RouteDispatched).Run(x, func(x *Exchange) (*dispatch.Result, error) {
		return x.Result, nil
	})
}

func (k *Kernel) sending(x *Exchange, res *dispatch.Result) (out *dispatch.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, panicked(r)
		}
	}()

	x.Result = res
	return k.pipeline(x, pipeline.SendingResult).Run(x, func(x *Exchange) (*dispatch.Result, error) {
		return x.Result, nil
	})
}

// caught runs ThrowableCaught. Should that fail too, the error is logged
// and a 500 result is produced.
func (k *Kernel) caught(x *Exchange, err error) (res *dispatch.Result) {
	defer func() {
		if r := recover(); r != nil {
			k.logger.Error("failed handling error", x.LogContext(panicked(r)))
			res = internalError()
		}
	}()

	x.Err, x.ErrStage = err, x.Stage

	var se *pipeline.StageError
	if errors.As(err, &se) {
		x.ErrStage = se.Stage
	}

	res, cerr := k.pipeline(x, pipeline.ThrowableCaught).Run(x, k.unhandled)
	if cerr != nil || res == nil {
		k.logger.Error("failed handling error", x.LogContext(cerr))
		return internalError()
	}

	return res
}

func (k *Kernel) unhandled(x *Exchange) (*dispatch.Result, error) {
	k.logger.Error(x.Err.Error(), x.LogContext(x.Err))
	return internalError(), nil
}

func (k *Kernel) terminated(x *Exchange, res *dispatch.Result) {
	defer func() {
		if r := recover(); r != nil {
			k.logger.Error("failed terminating request", x.LogContext(panicked(r)))
		}
	}()

	x.Result = res
	if _, err := k.pipeline(x, pipeline.Terminated).Run(x, func(x *Exchange) (*dispatch.Result, error) {
		return x.Result, nil
	}); err != nil {
		k.logger.Error("failed terminating request", x.LogContext(err))
	}
}

func notMatched(x *Exchange) (*dispatch.Result, error) {
	if x.Outcome.Kind == collection.MethodNotAllowed {
		allowed := append([]string(nil), x.Outcome.Allowed...)
		sort.Strings(allowed)

		res := dispatch.Status(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
		return res.WithHeader("Allow", strings.Join(allowed, ", ")), nil
	}

	return dispatch.Status(http.StatusNotFound, http.StatusText(http.StatusNotFound)), nil
}

func panicked(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: panic: %w", switchback.ErrUnexpected, err)
	}

	return fmt.Errorf("%w: panic: %v", switchback.ErrUnexpected, r)
}

func internalError() *dispatch.Result {
	return dispatch.Status(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
