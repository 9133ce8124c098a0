// Package middleware contains HTTP middleware for the orchestrator.
package middleware

import (
	"net/http"

	"capplane/internal/logger"

	"github.com/google/uuid"
)

// RequestID attaches a correlation id to every request. An id supplied
// by the caller via X-Request-ID is kept, otherwise one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
