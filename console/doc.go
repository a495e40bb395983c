// Package console runs commands through the same kernel that serves routes.
//
// A Command names a target and the positional arguments it accepts.
// Each Command becomes a route.Definition under the CLI method,
// so matching, binding, dependency injection and dispatch behave
// exactly as they do for HTTP requests.
package console
