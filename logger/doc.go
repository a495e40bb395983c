/*
Package logger provides logging functionality to a switchback app by defining the required behavior in [Logger]
and providing an implementation of it with [SwitchbackLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
LogLevel is the type to use to represent those levels.
An implementation of Logger may be initialized at a certain [LogLevel]
and only emit messages at or above that level of importance.
For example, [SwitchbackLogger] accepts a [LogLevel],
and if initialized with [LogLevelWarn],
only [*SwitchbackLogger.Warn], [*SwitchbackLogger.Error], and [*SwitchbackLogger.Fatal] produce messages.

Log messages emitted by [SwitchbackLogger] are composed of a few parts:
  - timestamp
  - log level
  - call site
  - message
  - log context

Here's an example:

	2026/04/28 15:55:21 [ERROR] kernel/kernel.go:143 'dispatch failed' log_context: {"route":"users.show","stage":"throwable_caught"}

The log context is a JSON-encoded [*LogContext].
It carries the request ID, route and lifecycle stage a message was logged in.

# SentryLogger

[SentryLogger] decorates a [SwitchbackLogger], shipping the [LogContext.Error]
of every message logged at WARN and above to Sentry.
*/
package logger
