package logger

import "context"

// ctxKey keeps logger context values from colliding with other packages.
type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stamps the id used to correlate all log records of one
// HTTP request. The request-id middleware calls this; the request logger
// reads it back.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the stamped request id, or an empty string outside a
// request context.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
