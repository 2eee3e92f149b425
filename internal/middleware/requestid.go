// Package middleware provides HTTP middleware for the swarmpilot API.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/swarmpilot/swarmpilot/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID honors an incoming X-Request-ID header or generates a fresh
// UUID, stamps it on the request context for the request logger, and echoes
// it on the response so clients can correlate.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
