package pipeline

import (
	"errors"
	"fmt"
)

// A Handler is the terminal step of a Pipeline, or the remainder of one as seen by a Middleware.
type Handler[C, R any] func(c C) (R, error)

// A Middleware participates in a Pipeline.
//
// Handle may call next and return its result, possibly altered;
// return a result without calling next, short-circuiting the rest of the Pipeline;
// or return an error, aborting the Pipeline.
type Middleware[C, R any] interface {
	Handle(c C, next Handler[C, R]) (R, error)
}

// Func adapts an ordinary function into a Middleware.
type Func[C, R any] func(c C, next Handler[C, R]) (R, error)

func (f Func[C, R]) Handle(c C, next Handler[C, R]) (R, error) { return f(c, next) }

// Chain glues the set of middlewares to the handler.
func Chain[C, R any](h Handler[C, R], mws ...Middleware[C, R]) Handler[C, R] {
	//NOTE: Loop in reverse to preserve middleware order
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], h
		h = func(c C) (R, error) { return mw.Handle(c, next) }
	}

	return h
}

// A Pipeline is an ordered chain of Middleware run for a single Stage.
//
// A Pipeline holds no per-request state; one is built at boot and shared.
type Pipeline[C, R any] struct {
	mws   []Middleware[C, R]
	stage Stage
}

// New constructs a Pipeline running mws, in order, for stage.
func New[C, R any](stage Stage, mws ...Middleware[C, R]) *Pipeline[C, R] {
	return &Pipeline[C, R]{stage: stage, mws: append([]Middleware[C, R](nil), mws...)}
}

// Len counts the Middleware in p.
func (p *Pipeline[C, R]) Len() int { return len(p.mws) }

// Stage is the Stage p runs for.
func (p *Pipeline[C, R]) Stage() Stage { return p.stage }

// With returns a new Pipeline running p's Middleware followed by extra.
func (p *Pipeline[C, R]) With(extra ...Middleware[C, R]) *Pipeline[C, R] {
	if len(extra) == 0 {
		return p
	}

	mws := make([]Middleware[C, R], 0, len(p.mws)+len(extra))
	mws = append(mws, p.mws...)
	mws = append(mws, extra...)
	return &Pipeline[C, R]{stage: p.stage, mws: mws}
}

// Run passes c through each Middleware in order, ending with terminal.
//
// Any error is returned as a *StageError noting the Stage it was raised in.
func (p *Pipeline[C, R]) Run(c C, terminal Handler[C, R]) (R, error) {
	r, err := Chain(terminal, p.mws...)(c)
	if err != nil {
		return r, wrap(p.stage, err)
	}

	return r, nil
}

// A StageError notes the Stage in which a Pipeline was aborted.
type StageError struct {
	Err   error
	Stage Stage
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %s", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func wrap(stage Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}

	return &StageError{Stage: stage, Err: err}
}
