package switchback

import "context"

type Key string

// RequestIDKey stashes a unique UUID for each request handled by the kernel.
const RequestIDKey Key = "RequestIDKey"

// String formats the stringified key with additional contextual information
func (k Key) String() string {
	return "switchback context key: " + string(k)
}

// RequestIDFromContext retrieves the request ID stashed by [NewRequestIDContext], if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// NewRequestIDContext adds id to ctx, returning the resulting context.
func NewRequestIDContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
