package kernel

import (
	"fmt"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/logger"
	"github.com/xy-planning-network/switchback/pipeline"
)

// An Option configures a Kernel.
type Option func(*Kernel) error

// WithContainer sets the services targets are injected with.
func WithContainer(c *dispatch.Container) Option {
	return func(k *Kernel) error {
		if c == nil {
			return fmt.Errorf("%w: nil container", switchback.ErrMissingData)
		}

		k.container = c
		return nil
	}
}

// WithHydrator sets how entity parameters are loaded.
func WithHydrator(h collection.Hydrator) Option {
	return func(k *Kernel) error {
		k.hydrator = h
		return nil
	}
}

// WithLogger sets the logger.Logger unhandled errors are logged to.
func WithLogger(l logger.Logger) Option {
	return func(k *Kernel) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", switchback.ErrMissingData)
		}

		k.logger = l
		return nil
	}
}

// WithRegistry sets where middleware named by WithStage and by routes is found.
func WithRegistry(r *Registry) Option {
	return func(k *Kernel) error {
		if r == nil {
			return fmt.Errorf("%w: nil registry", switchback.ErrMissingData)
		}

		k.registry = r
		return nil
	}
}

// WithStage runs the middleware registered under names at stage for every request.
func WithStage(stage pipeline.Stage, names ...string) Option {
	return func(k *Kernel) error {
		if err := stage.Valid(); err != nil {
			return err
		}

		k.names[stage] = append(k.names[stage], names...)
		return nil
	}
}

// WithMiddleware runs mws at stage for every request, after any named by WithStage.
func WithMiddleware(stage pipeline.Stage, mws ...Middleware) Option {
	return func(k *Kernel) error {
		if err := stage.Valid(); err != nil {
			return err
		}

		k.direct[stage] = append(k.direct[stage], mws...)
		return nil
	}
}
