package ranger

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/console"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/middleware"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/postgres"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/store"
	"github.com/xy-planning-network/switchback/target"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// A RangerOption configures a *Ranger either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some RangerOptions require data in others and thus an OptFollowup can be returned
// in order to be called at a later time when that data is available.
//
// WithRoutes is an example of the first.
// An unexported field on the passed in *Ranger is updated with the enclosed value.
//
// WithModels is an example of the second.
// The database is connected to only when the closure it returns is called,
// after the environment is known.
type RangerOption func(rng *Ranger) (OptFollowup, error)
type OptFollowup func() error

// WithCommands registers cmds to be run with [Ranger.Run].
func WithCommands(cmds ...console.Command) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if err := rng.commands.Register(cmds...); err != nil {
			return nil, err
		}

		rng.debug(fmt.Sprintf("using %d commands", len(cmds)))
		return nil, nil
	}
}

// WithContainer exposes the services in c to targets.
func WithContainer(c *dispatch.Container) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if c == nil {
			return nil, fmt.Errorf("%w: nil container", switchback.ErrMissingData)
		}

		rng.container = c
		rng.debug(fmt.Sprintf("using container %T", c))
		return nil, nil
	}
}

// WithContext exposes the provided context.Context to the switchback app.
func WithContext(ctx context.Context) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.ctx = ctx
		rng.debug(fmt.Sprintf("using context %T", ctx))
		return nil, nil
	}
}

// WithCORS allows cross-origin requests from base.
func WithCORS(base string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.cors = base
		rng.debug(fmt.Sprintf("using CORS for %s", base))
		return nil, nil
	}
}

// WithDB exposes the provided *gorm.DB to the hydrator WithModels constructs.
//
// WithDB assumes a connection has already been established.
func WithDB(db *gorm.DB) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.db = db
		rng.debug(fmt.Sprintf("using db %T", db))
		return nil, nil
	}
}

// WithDeferred registers p to construct the service identified by id the first time a target needs it.
// Routes depending on id are marked deferred.
func WithDeferred(id target.TypeID, p dispatch.Provider) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		return func() error {
			if err := rng.container.Defer(id, p); err != nil {
				return err
			}

			rng.debug(fmt.Sprintf("deferring %s", id))
			return nil
		}, nil
	}
}

// WithEnv casts the provided string into a valid Environment,
// or, reads from the ENVIRONMENT environment variable a valid Environment.
//
// If both fail, the default Environment is set to Development.
func WithEnv(env string) RangerOption {
	e := switchback.Environment(env)
	if err := e.Valid(); err != nil {
		e = switchback.EnvVarOrEnv(environmentEnvVar, switchback.Development)
	}

	return func(rng *Ranger) (OptFollowup, error) {
		rng.env = e
		rng.debug(fmt.Sprintf("using env %s", e))
		return nil, nil
	}
}

// WithEnvFile loads environment variables from the files at paths.
// Variables already set are not overwritten.
//
// Since RangerOptions are applied in order, WithEnvFile precedes any option reading those variables.
func WithEnvFile(paths ...string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if err := godotenv.Load(paths...); err != nil {
			return nil, err
		}

		rng.debug(fmt.Sprintf("using env files %v", paths))
		return nil, nil
	}
}

// WithHydrator sets how entity parameters are loaded.
func WithHydrator(h collection.Hydrator) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.hydrator = h
		rng.debug(fmt.Sprintf("using hydrator %T", h))
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the switchback app.
func WithLogger(l logger.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if l == nil {
			return nil, fmt.Errorf("%w: nil logger", switchback.ErrMissingData)
		}

		rng.l = l
		rng.debug(fmt.Sprintf("using logger %T", l))
		return nil, nil
	}
}

// WithManifest adds the routes described in the YAML or TOML files at paths.
func WithManifest(paths ...string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.manifests = append(rng.manifests, paths...)
		rng.debug(fmt.Sprintf("using manifests %v", paths))
		return nil, nil
	}
}

// WithMetrics records request metrics in reg and serves those gathered by g at path.
// The metrics middleware leads RequestReceived unless WithStage configures that Stage.
func WithMetrics(reg prometheus.Registerer, g prometheus.Gatherer, path string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		m, err := middleware.NewMetrics(reg)
		if err != nil {
			return nil, err
		}

		if err := rng.middleware.Register(MetricsMiddleware, m.Observe()); err != nil {
			return nil, err
		}

		for _, stage := range []pipeline.Stage{pipeline.RouteMatched, pipeline.RouteNotMatched, pipeline.ThrowableCaught} {
			rng.direct[stage] = append(rng.direct[stage], m.Count())
		}

		if g != nil && path != "" {
			rng.mounts = append(rng.mounts, mount{path: path, h: middleware.Handler(g)})
		}

		rng.debug(fmt.Sprintf("using metrics at %s", path))
		return nil, nil
	}
}

// WithMiddleware runs mws at stage for every request, after any named middleware.
func WithMiddleware(stage pipeline.Stage, mws ...kernel.Middleware) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if err := stage.Valid(); err != nil {
			return nil, err
		}

		rng.direct[stage] = append(rng.direct[stage], mws...)
		return nil, nil
	}
}

// WithModels constructs a followup option that, when called,
// hydrates entity parameters of the types of models from PostgreSQL.
//
// If WithDB has not supplied a connection, one is established from DATABASE_* environment variables.
func WithModels(models ...any) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		return func() error {
			if rng.db == nil {
				db, err := postgres.Connect(postgres.NewCxnConfig(), rng.env)
				if err != nil {
					return err
				}

				rng.db = db
			}

			h := postgres.NewHydrator(rng.db)
			if err := h.Register(models...); err != nil {
				return err
			}

			rng.hydrator = h
			rng.debug(fmt.Sprintf("hydrating %v", h.Entities()))
			return nil
		}, nil
	}
}

// WithNamedMiddleware registers mw under name, for routes and WithStage to run.
func WithNamedMiddleware(name string, mw kernel.Middleware) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if err := rng.middleware.Register(name, mw); err != nil {
			return nil, err
		}

		rng.debug(fmt.Sprintf("using middleware %s", name))
		return nil, nil
	}
}

// WithRegistry sets where the targets of routes are found.
func WithRegistry(r *target.Registry) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if r == nil {
			return nil, fmt.Errorf("%w: nil registry", switchback.ErrMissingData)
		}

		rng.registry = r
		rng.debug(fmt.Sprintf("using registry %T", r))
		return nil, nil
	}
}

// WithRoutes adds defs.
func WithRoutes(defs ...route.Definition) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.defs = append(rng.defs, defs...)
		rng.debug(fmt.Sprintf("using %d routes", len(defs)))
		return nil, nil
	}
}

// WithServer exposes the *http.Server to the switchback app.
func WithServer(s *http.Server) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.srv = s
		rng.debug(fmt.Sprintf("using server %T", s))
		return nil, nil
	}
}

// WithSnapshotStore keeps compiled routes in s under key.
// A nil s disables snapshots.
func WithSnapshotStore(s store.SnapshotStore, key string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.store = s
		rng.storeSet = true
		if key != "" {
			rng.snapshotKey = key
		}

		rng.debug(fmt.Sprintf("using snapshot store %T", s))
		return nil, nil
	}
}

// WithStage runs the middleware registered under names at stage for every request,
// replacing the default middleware for stage.
func WithStage(stage pipeline.Stage, names ...string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if err := stage.Valid(); err != nil {
			return nil, err
		}

		rng.stages[stage] = append(rng.stages[stage], names...)
		return nil, nil
	}
}

// WithTracing starts a span in tp for each request.
// If tp is nil, the global TracerProvider is used.
// The trace middleware leads RequestReceived unless WithStage configures that Stage.
func WithTracing(tp trace.TracerProvider) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if err := rng.middleware.Register(TraceMiddleware, middleware.Trace(tp)); err != nil {
			return nil, err
		}

		rng.debug("using tracing")
		return nil, nil
	}
}

// withDefaults constructs a followup option that, when called,
// fills in the logger, middleware, stages, manifests and snapshot store
// no other RangerOption configured.
func withDefaults() RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		return func() error {
			if rng.l == nil {
				rng.l = defaultLogger(rng.env)
			}

			if err := defaultMiddleware(rng.middleware, rng.env, rng.l); err != nil {
				return err
			}

			for stage, names := range defaultStages(rng.middleware) {
				if _, ok := rng.stages[stage]; !ok {
					rng.stages[stage] = names
				}
			}

			if len(rng.manifests) == 0 {
				rng.manifests = defaultManifests()
			}

			if rng.snapshotKey == "" {
				rng.snapshotKey = switchback.EnvVarOrString(snapshotKeyEnvVar, DefaultSnapshotKey)
			}

			if !rng.storeSet {
				s, err := defaultSnapshotStore()
				if err != nil {
					return err
				}

				rng.store = s
			}

			if rng.srv == nil {
				rng.srv = defaultServer(rng.ctx)
			}

			return nil
		}, nil
	}
}
