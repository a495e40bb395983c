package dispatch

import (
	"fmt"
	"net/http"
	"reflect"
)

// A Result is the normalized outcome of handling a request.
type Result struct {
	Body     any
	Headers  map[string]string
	Location string
	Status   int
}

// OK is a successful Result carrying body.
func OK(body any) *Result { return &Result{Status: http.StatusOK, Body: body} }

// NoContent is a successful Result carrying nothing.
func NoContent() *Result { return &Result{Status: http.StatusNoContent} }

// Status is a Result with the given status and body.
func Status(status int, body any) *Result { return &Result{Status: status, Body: body} }

// Redirect is a Result sending the client to to.
func Redirect(to string, permanent bool) *Result {
	status := http.StatusFound
	if permanent {
		status = http.StatusMovedPermanently
	}

	return &Result{Status: status, Location: to}
}

// WithHeader sets a header on r, returning r.
func (r *Result) WithHeader(key, value string) *Result {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}

	r.Headers[key] = value
	return r
}

var (
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	resultType    = reflect.TypeOf(Result{})
	resultPtrType = reflect.TypeOf(&Result{})
)

// checkReturns asserts a target returning out can be normalized.
//
// Recognized are: nothing; an error; a value; a value and an error.
func checkReturns(out []reflect.Type) error {
	switch len(out) {
	case 0:
		return nil
	case 1:
		if out[0] == errorType {
			return nil
		}

		return checkValueType(out[0])
	case 2:
		if out[1] != errorType {
			return fmt.Errorf("%w: second return value is %s, not error", ErrUnrecognizedReturnType, out[1])
		}

		return checkValueType(out[0])
	default:
		return fmt.Errorf("%w: %d return values", ErrUnrecognizedReturnType, len(out))
	}
}

func checkValueType(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s", ErrUnrecognizedReturnType, t)
	}

	return nil
}

// failure retrieves the error a target returned, if any.
func failure(out []reflect.Value, types []reflect.Type) error {
	n := len(types)
	if n == 0 || types[n-1] != errorType {
		return nil
	}

	err, _ := out[n-1].Interface().(error)
	return err
}

// normalize converts what a target returned without error into a *Result.
func normalize(out []reflect.Value, types []reflect.Type) (*Result, error) {
	if err := checkReturns(types); err != nil {
		return nil, err
	}

	if len(out) == 0 || types[0] == errorType {
		return NoContent(), nil
	}

	return normalizeValue(out[0])
}

func normalizeValue(v reflect.Value) (*Result, error) {
	switch v.Type() {
	case resultPtrType:
		if v.IsNil() {
			return NoContent(), nil
		}

		return v.Interface().(*Result), nil
	case resultType:
		r := v.Interface().(Result)
		return &r, nil
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return OK(nil), nil
		}

		v = v.Elem()
		if err := checkValueType(v.Type()); err != nil {
			return nil, err
		}

		return normalizeValue(v)
	}

	return OK(v.Interface()), nil
}
