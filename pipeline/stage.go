package pipeline

import (
	"fmt"

	"github.com/xy-planning-network/switchback"
)

// A Stage is a point in the lifecycle of a request at which a Pipeline runs.
type Stage uint8

const (
	StageUnknown Stage = iota
	RequestReceived
	RouteMatched
	RouteNotMatched
	RouteDispatched
	SendingResult
	Terminated
	ThrowableCaught
)

var stageNames = [...]string{
	StageUnknown:    "unknown",
	RequestReceived: "request_received",
	RouteMatched:    "route_matched",
	RouteNotMatched: "route_not_matched",
	RouteDispatched: "route_dispatched",
	SendingResult:   "sending_result",
	Terminated:      "terminated",
	ThrowableCaught: "throwable_caught",
}

// Stages lists every valid Stage in lifecycle order.
func Stages() []Stage {
	return []Stage{
		RequestReceived,
		RouteMatched,
		RouteNotMatched,
		RouteDispatched,
		SendingResult,
		Terminated,
		ThrowableCaught,
	}
}

// ParseStage converts the name of a Stage, as returned by [Stage.String], into a Stage.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages() {
		if stageNames[s] == name {
			return s, nil
		}
	}

	return StageUnknown, fmt.Errorf("%w: stage %q", switchback.ErrNotValid, name)
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}

	return stageNames[StageUnknown]
}

func (s Stage) Valid() error {
	if s == StageUnknown || int(s) >= len(stageNames) {
		return fmt.Errorf("%w: stage %d", switchback.ErrNotValid, s)
	}

	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (s Stage) MarshalText() ([]byte, error) {
	if err := s.Valid(); err != nil {
		return nil, err
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *Stage) UnmarshalText(b []byte) error {
	st, err := ParseStage(string(b))
	if err != nil {
		return err
	}

	*s = st
	return nil
}
