package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrTargetInvocationFailed = errors.New("target invocation failed")
	ErrUnrecognizedReturnType = errors.New("unrecognized return type")
	ErrUnresolvableDependency = errors.New("unresolvable dependency")
)

// An InvocationError wraps whatever a target returned or panicked with.
//
// errors.Is matches both ErrTargetInvocationFailed and Cause.
type InvocationError struct {
	Cause error
	Route string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("dispatch %s: %s: %s", e.Route, ErrTargetInvocationFailed, e.Cause)
}

func (e *InvocationError) Unwrap() []error { return []error{ErrTargetInvocationFailed, e.Cause} }
