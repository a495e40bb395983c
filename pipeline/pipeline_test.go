package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback/pipeline"
)

type trace struct{ steps []string }

type mw = pipeline.Middleware[*trace, string]

func record(name string) mw {
	return pipeline.Func[*trace, string](func(c *trace, next pipeline.Handler[*trace, string]) (string, error) {
		c.steps = append(c.steps, name)
		return next(c)
	})
}

func shortCircuit(result string) mw {
	return pipeline.Func[*trace, string](func(c *trace, next pipeline.Handler[*trace, string]) (string, error) {
		c.steps = append(c.steps, "short")
		return result, nil
	})
}

func fail(err error) mw {
	return pipeline.Func[*trace, string](func(c *trace, next pipeline.Handler[*trace, string]) (string, error) {
		c.steps = append(c.steps, "fail")
		return "", err
	})
}

func terminal(c *trace) (string, error) {
	c.steps = append(c.steps, "terminal")
	return "done", nil
}

func TestPipelineRun(t *testing.T) {
	errBoom := errors.New("boom")

	tcs := []struct {
		name     string
		mws      []mw
		expected string
		steps    []string
		err      error
	}{
		{"empty", nil, "done", []string{"terminal"}, nil},
		{"ordered", []mw{record("a"), record("b")}, "done", []string{"a", "b", "terminal"}, nil},
		{
			"short-circuit",
			[]mw{record("a"), shortCircuit("early"), record("c")},
			"early",
			[]string{"a", "short"},
			nil,
		},
		{"error", []mw{record("a"), fail(errBoom), record("c")}, "", []string{"a", "fail"}, errBoom},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			p := pipeline.New(pipeline.RouteMatched, tc.mws...)
			c := new(trace)

			// Act
			actual, err := p.Run(c, terminal)

			// Assert
			require.Equal(t, tc.expected, actual)
			require.Equal(t, tc.steps, c.steps)
			require.ErrorIs(t, err, tc.err)
			if tc.err != nil {
				var se *pipeline.StageError
				require.ErrorAs(t, err, &se)
				require.Equal(t, pipeline.RouteMatched, se.Stage)
			}
		})
	}
}

func TestPipelineNestedStageError(t *testing.T) {
	// Arrange
	inner := pipeline.New(pipeline.RouteDispatched, fail(errors.New("boom")))
	outer := pipeline.New(pipeline.RouteMatched, record("a"))

	// Act
	_, err := outer.Run(new(trace), func(c *trace) (string, error) {
		return inner.Run(c, terminal)
	})

	// Assert
	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, pipeline.RouteDispatched, se.Stage)
	require.Equal(t, "route_dispatched: boom", err.Error())
}

func TestPipelineWith(t *testing.T) {
	// Arrange
	base := pipeline.New(pipeline.SendingResult, record("a"))

	// Act
	extended := base.With(record("b"))
	c := new(trace)
	_, err := extended.Run(c, terminal)

	// Assert
	require.Nil(t, err)
	require.Equal(t, 1, base.Len())
	require.Equal(t, 2, extended.Len())
	require.Equal(t, pipeline.SendingResult, extended.Stage())
	require.Equal(t, []string{"a", "b", "terminal"}, c.steps)
	require.Same(t, base, base.With())
}

func TestPipelineMutatesResult(t *testing.T) {
	// Arrange
	upper := pipeline.Func[*trace, string](func(c *trace, next pipeline.Handler[*trace, string]) (string, error) {
		r, err := next(c)
		return r + "!", err
	})

	// Act
	actual, err := pipeline.New(pipeline.RouteDispatched, upper).Run(new(trace), terminal)

	// Assert
	require.Nil(t, err)
	require.Equal(t, "done!", actual)
}
