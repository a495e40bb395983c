package logger_test

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback/logger"
)

func newTestLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

func TestNewLogLevel(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected logger.LogLevel
	}{
		{"DEBUG", logger.LogLevelDebug},
		{"INFO", logger.LogLevelInfo},
		{"WARN", logger.LogLevelWarn},
		{"ERROR", logger.LogLevelError},
		{"FATAL", logger.LogLevelFatal},
		{"debug", logger.LogLevelUnk},
		{"", logger.LogLevelUnk},
	} {
		t.Run(tc.input, func(t *testing.T) {
			require.Equal(t, tc.expected, logger.NewLogLevel(tc.input))
		})
	}

	require.Equal(t, "[WARN]", logger.LogLevelWarn.String())
}

func TestSwitchbackLoggerLevels(t *testing.T) {
	// Arrange
	b := new(bytes.Buffer)
	l := logger.New(logger.WithLogger(newTestLogger(b)), logger.WithLevel(logger.LogLevelWarn))

	// Act
	l.Debug("debug message", nil)
	l.Info("info message", nil)

	// Assert
	require.Empty(t, b.String())

	// Act
	l.Warn("warn message", nil)

	// Assert
	require.Contains(t, b.String(), "[WARN]")
	require.Contains(t, b.String(), "'warn message'")
	require.Contains(t, b.String(), "logger/logger_test.go")

	// Arrange
	b.Reset()

	// Act
	l.Error("error message", &logger.LogContext{Error: errors.New("boom"), Route: "users.show"})

	// Assert
	require.Contains(t, b.String(), "[ERROR]")
	require.Contains(t, b.String(), `log_context: {"error":"boom","route":"users.show"}`)
}

func TestSwitchbackLoggerCaller(t *testing.T) {
	// Arrange
	b := new(bytes.Buffer)
	l := logger.New(logger.WithLogger(newTestLogger(b)), logger.WithLevel(logger.LogLevelDebug))

	// Act
	l.Debug("from elsewhere", &logger.LogContext{Caller: "worker/job.go:12"})

	// Assert
	require.Contains(t, b.String(), "worker/job.go:12 'from elsewhere'")
}

func TestSwitchbackLoggerStage(t *testing.T) {
	tcs := []struct {
		name     string
		env      string
		ctx      *logger.LogContext
		expected string
		colored  bool
	}{
		{"no-context", "PRODUCTION", nil, "[INFO] logger/", false},
		{"no-stage", "PRODUCTION", &logger.LogContext{Route: "home"}, "[INFO] logger/", false},
		{"stage", "PRODUCTION", &logger.LogContext{Stage: "sending_result"}, "[INFO] <sending_result> logger/", false},
		{"stage-with-caller", "STAGING", &logger.LogContext{Stage: "terminated", Caller: "kernel/kernel.go:9"}, "[INFO] <terminated> kernel/kernel.go:9 'message'", false},
		{"development-colored", "DEVELOPMENT", &logger.LogContext{Stage: "route_matched"}, "[INFO] <route_matched> logger/", true},
	}

	// Arrange
	noColor := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = noColor })

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			b := new(bytes.Buffer)
			l := logger.New(logger.WithEnv(tc.env), logger.WithLogger(newTestLogger(b)))

			// Act
			l.Info("message", tc.ctx)

			// Assert
			require.Contains(t, b.String(), tc.expected)
			require.Equal(t, tc.colored, strings.Contains(b.String(), "\x1b["))
		})
	}
}

func TestSwitchbackLoggerAddSkip(t *testing.T) {
	// Arrange
	l := logger.New(logger.WithSkip(1))

	// Act
	actual := l.AddSkip(3)

	// Assert
	require.Equal(t, 1, l.Skip())
	require.Equal(t, 3, actual.Skip())
	require.Equal(t, l.LogLevel(), actual.LogLevel())
}

func TestNoop(t *testing.T) {
	var l logger.Logger = logger.Noop{}
	l.Error("nothing happens", nil)
	require.Equal(t, logger.LogLevelUnk, l.LogLevel())
}
