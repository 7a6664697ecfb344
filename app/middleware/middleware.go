package appMiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/auth"
)

// RateLimit limits requests per minute, keyed by user when authenticated and
// by client IP otherwise. A non-positive limit disables it.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
				return "user:" + userID, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many requests, slow down")
		}),
	)
}
