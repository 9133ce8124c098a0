package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"capplane/pkg/api"

	"golang.org/x/time/rate"
)

// limiterTTL bounds how long an idle client keeps its limiter.
const limiterTTL = 5 * time.Minute

// RateLimit throttles requests per client address. Intended for the
// webhook intake, which external CI systems may call in bursts.
// limit=0 means unlimited.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limiters := sync.Map{} // client host -> *cachedLimiter

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 {
				host, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					host = r.RemoteAddr
				}
				limiter := getOrCreateLimiter(&limiters, host, limit, burst)
				if !limiter.Allow() {
					w.Header().Set("Retry-After", "1")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusTooManyRequests)
					json.NewEncoder(w).Encode(api.ErrorResponse{
						Error: "Too Many Requests",
						Code:  "429",
					})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func getOrCreateLimiter(limiters *sync.Map, host string, limit rate.Limit, burst int) *rate.Limiter {
	if cached, ok := limiters.Load(host); ok {
		entry := cached.(*cachedLimiter)
		if time.Now().Before(entry.expiresAt) {
			return entry.limiter
		}
		// expired, need to create new
	}

	limiter := rate.NewLimiter(limit, burst)
	limiters.Store(host, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(limiterTTL),
	})
	return limiter
}
