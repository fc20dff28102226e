package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/resilience"
)

// RateLimit rejects requests with 429 RATE_LIMITED once the token bucket is
// empty. The bucket is shared by all clients; GET /dag rebuilds the graph
// from the variable store on every call.
func RateLimit(limiter *resilience.RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, apperrors.RateLimited("admin api"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
