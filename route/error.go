package route

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateParameter = errors.New("duplicate parameter")
	ErrInvalidRegex       = errors.New("invalid regex")
	ErrMalformedPattern   = errors.New("malformed pattern")
	ErrMissingPlaceholder = errors.New("missing placeholder")
	ErrNoMethods          = errors.New("no methods")
)

// A CompileError is raised when a route cannot be compiled.
// Every CompileError is fatal at boot.
type CompileError struct {
	Err   error
	Param string
	Path  string
}

func (e *CompileError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("compile %q: %s", e.Path, e.Err)
	}

	return fmt.Sprintf("compile %q: parameter %q: %s", e.Path, e.Param, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
