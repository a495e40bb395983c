package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/pipeline"
)

func TestParseStage(t *testing.T) {
	for _, s := range pipeline.Stages() {
		t.Run(s.String(), func(t *testing.T) {
			actual, err := pipeline.ParseStage(s.String())
			require.Nil(t, err)
			require.Equal(t, s, actual)
			require.Nil(t, s.Valid())
		})
	}

	_, err := pipeline.ParseStage("unknown")
	require.ErrorIs(t, err, switchback.ErrNotValid)
	require.ErrorIs(t, pipeline.StageUnknown.Valid(), switchback.ErrNotValid)
	require.ErrorIs(t, pipeline.Stage(42).Valid(), switchback.ErrNotValid)
	require.Equal(t, "unknown", pipeline.Stage(42).String())
}

func TestStageText(t *testing.T) {
	// Arrange
	var s pipeline.Stage

	// Act
	b, err := pipeline.RouteMatched.MarshalText()
	require.Nil(t, err)
	err = s.UnmarshalText(b)

	// Assert
	require.Nil(t, err)
	require.Equal(t, "route_matched", string(b))
	require.Equal(t, pipeline.RouteMatched, s)
	require.NotNil(t, s.UnmarshalText([]byte("nope")))
}
