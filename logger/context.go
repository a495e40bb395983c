package logger

import (
	"encoding"
	"encoding/json"
	"fmt"
	"runtime"
)

const callerTmpl = "%s:%d"

var (
	_ encoding.TextMarshaler = LogContext{}
)

// A LogContext provides additional information and configuration
// for a [Logger] method that cannot be tersely captured in the message itself.
type LogContext struct {
	// Caller overrides the caller file and line number with the provided value.
	//
	// Caller is not logged in the text of a LogContext.
	Caller string

	// Data is any information pertinent at the time of the logging event.
	Data map[string]any

	// Error is the error that may or may not have instigated a logging event.
	Error error

	// RequestID identifies the request being handled during the logging event.
	RequestID string

	// Route is the name or, lacking one, the path of the route matched during the logging event.
	Route string

	// Stage is the lifecycle stage the request was in during the logging event.
	Stage string
}

// MarshalText converts LogContext into a JSON representation,
// eliminating zero-value fields or fields not requiring logging.
//
// Values in LogContext.Data that cannot be represented in JSON will cause an error to be thrown.
//
// MarshalText implements [encoding.TextMarshaler].
func (lc LogContext) MarshalText() ([]byte, error) {
	m := make(map[string]any)
	if lc.Data != nil {
		m["data"] = lc.Data
	}

	if lc.Error != nil {
		m["error"] = lc.Error.Error()
	}

	if lc.RequestID != "" {
		m["request_id"] = lc.RequestID
	}

	if lc.Route != "" {
		m["route"] = lc.Route
	}

	if lc.Stage != "" {
		m["stage"] = lc.Stage
	}

	return json.Marshal(m)
}

// String stringifies LogContext as a JSON representation of it.
func (lc LogContext) String() string {
	b, err := json.Marshal(lc)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}

	// NOTE: json.Marshal quotes the output of a TextMarshaler
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return string(b)
	}

	return s
}

// CurrentCaller retrieves the caller for the caller of CurrentCaller,
// formatted for using as a value in LogContext.Caller.
//
//	myFunc() { 		<- returns this caller
//		func() {
//			CurrentCaller()
//		}()
//	}
func CurrentCaller() string {
	_, file, line, _ := runtime.Caller(2)
	return fmt.Sprintf(callerTmpl, immediateFilepath(file), line)
}
