package ranger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/console"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/http/router"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/manifest"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/store"
	"github.com/xy-planning-network/switchback/target"
	"gorm.io/gorm"
)

type mount struct {
	path string
	h    http.Handler
}

// A Ranger manages and exposes all components of a switchback app to one another.
type Ranger struct {
	collection *collection.Collection
	commands   *console.Console
	container  *dispatch.Container
	cors       string
	ctx        context.Context
	db         *gorm.DB
	defs       []route.Definition
	direct     map[pipeline.Stage][]kernel.Middleware
	env        switchback.Environment
	hydrator   collection.Hydrator
	k          *kernel.Kernel
	l          logger.Logger
	manifests  []string
	middleware *kernel.Registry
	mounts     []mount
	registry   *target.Registry
	router     *router.Router
	srv        *http.Server
	stages     map[pipeline.Stage][]string

	snapshotKey string
	store       store.SnapshotStore
	storeSet    bool
}

// New constructs a Ranger from the provided options.
// Default options are applied first followed by the options passed into New.
// Options supplied to New overwrite default configurations.
//
// Once configured, New restores or compiles the route collection
// and verifies the target of every route can be dispatched.
func New(opts ...RangerOption) (*Ranger, error) {
	r := &Ranger{
		commands:   console.New(),
		container:  dispatch.NewContainer(),
		direct:     make(map[pipeline.Stage][]kernel.Middleware),
		middleware: kernel.NewRegistry(),
		registry:   target.NewRegistry(),
		stages:     make(map[pipeline.Stage][]string),
	}
	followups := make([]OptFollowup, 0)

	// NOTE: calling an option configures the *Ranger under construction.
	// Some options require data from other options.
	// These options, therefore, must delay configuring the *Ranger
	// until either (1) user supplied RangerOptions or (2) default RangerOptions
	// configure the *Ranger first.
	// They return an OptFollowup to be called after the initial set of options are run.
	for _, opt := range append(defaultOpts(), opts...) {
		fn, err := opt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", switchback.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", switchback.ErrBadConfig, err)
		}
	}

	if err := r.boot(); err != nil {
		return nil, fmt.Errorf("%w: %s", switchback.ErrBadConfig, err)
	}

	return r, nil
}

// boot assembles the kernel and router from the configured components.
func (r *Ranger) boot() error {
	in := target.NewIntrospector(r.registry)
	d, err := dispatch.NewDispatcher(in)
	if err != nil {
		return err
	}

	c, err := r.routes(in)
	if err != nil {
		return err
	}

	verifier, err := r.container.Scope(&kernel.Request{}, &http.Request{})
	if err != nil {
		return err
	}

	var errs []error
	for _, def := range c.Routes() {
		if err := d.Verify(def, verifier); err != nil {
			errs = append(errs, fmt.Errorf("route %s: %w", def.Name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	opts := []kernel.Option{
		kernel.WithContainer(r.container),
		kernel.WithHydrator(r.hydrator),
		kernel.WithLogger(r.l),
		kernel.WithRegistry(r.middleware),
	}

	for _, stage := range pipeline.Stages() {
		if names := r.stages[stage]; len(names) > 0 {
			opts = append(opts, kernel.WithStage(stage, names...))
		}

		if mws := r.direct[stage]; len(mws) > 0 {
			opts = append(opts, kernel.WithMiddleware(stage, mws...))
		}
	}

	if r.k, err = kernel.New(c, d, opts...); err != nil {
		return err
	}

	ropts := []router.Option{router.WithEnv(r.env), router.WithLogger(r.l)}
	if r.cors != "" {
		ropts = append(ropts, router.WithCORS(r.cors))
	}

	r.collection = c
	r.router = router.New(r.k, ropts...)
	for _, m := range r.mounts {
		r.router.Handle(m.path, m.h, http.MethodGet)
	}

	r.srv.Handler = r.router
	return nil
}

// routes restores the collection from the snapshot store or, failing that, compiles it.
// A compiled collection is saved to the snapshot store.
func (r *Ranger) routes(in *target.Introspector) (*collection.Collection, error) {
	ctx := r.context()
	rebuild := r.env.CompilesOnBoot() || switchback.EnvVarOrBool(snapshotRebuildEnvVar, false)
	if r.store != nil && !rebuild {
		c, err := store.Restore(ctx, r.store, r.snapshotKey)
		if err == nil {
			r.debug(fmt.Sprintf("restored %d routes from snapshot %s", len(c.Routes()), r.snapshotKey))
			return c, nil
		}

		if !errors.Is(err, switchback.ErrNotExist) {
			r.l.Warn("could not restore routes, compiling", &logger.LogContext{Error: err})
		}
	}

	b := collection.NewBuilder(in, collection.WithLogger(r.l))
	for _, def := range r.defs {
		if _, err := b.AddRoute(def); err != nil {
			return nil, err
		}
	}

	for _, path := range r.manifests {
		f, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}

		if err := f.Apply(b); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := r.commands.Apply(b); err != nil {
		return nil, err
	}

	if err := b.Defer(r.container.Deferred()...); err != nil {
		return nil, err
	}

	c := b.Freeze()
	if r.store != nil {
		if err := store.Save(ctx, r.store, r.snapshotKey, c); err != nil {
			r.l.Error("could not save routes snapshot", &logger.LogContext{Error: err})
		}
	}

	return c, nil
}

func (r *Ranger) context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}

	return context.Background()
}

func (r *Ranger) debug(msg string) {
	if r.l != nil {
		r.l.Debug(msg, nil)
	}
}

func (r *Ranger) Collection() *collection.Collection { return r.collection }
func (r *Ranger) Commands() *console.Console         { return r.commands }
func (r *Ranger) Env() switchback.Environment        { return r.env }
func (r *Ranger) Kernel() *kernel.Kernel             { return r.k }
func (r *Ranger) Logger() logger.Logger              { return r.l }
func (r *Ranger) Router() *router.Router             { return r.router }

// Run runs the command named by argv[0], writing its output to w,
// and returns the process exit code.
func (r *Ranger) Run(argv []string, w io.Writer) int {
	code, err := console.Run(r.context(), r.k, argv, w)
	if err != nil {
		r.l.Error(err.Error(), nil)
		if code == 2 || errors.Is(err, switchback.ErrNotExist) {
			_ = r.commands.Usage(w)
		}
	}

	return code
}

// Guide begins the web server.
//
// These, and (*Ranger).Shutdown, stop Guide:
//
// - os.Interrupt
// - os.Kill
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (r *Ranger) Guide() error {
	ctx, cancel := context.WithCancel(r.context())
	defer cancel()

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		os.Kill,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer signal.Stop(ch)

	go func() {
		select {
		case s := <-ch:
			r.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		defer cancel()

		r.l.Info(fmt.Sprintf("running web server at %s", r.srv.Addr), nil)
		if err := r.srv.ListenAndServe(); err != http.ErrServerClosed {
			err = fmt.Errorf("could not listen: %w", err)
			r.l.Error(err.Error(), nil)
		}
	}()

	<-ctx.Done()
	return r.Shutdown()
}

// Shutdown shutdowns the web server.
func (r *Ranger) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r.l.Info("shutting down web server", nil)
	err := r.srv.Shutdown(shutdownCtx)
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	if closer, ok := r.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			r.l.Warn("could not close snapshot store", &logger.LogContext{Error: err})
		}
	}

	r.l.Info("web server shutdown successfully", nil)
	return nil
}
