package appMiddleware

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/auth"
)

// RequireAdmin lets the request through only when the authenticated email is
// accepted by isAdmin. It must run after auth.Authenticate.
func RequireAdmin(logger *slog.Logger, isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.GetIdentityFromContext(r.Context())
			if !ok {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !isAdmin(identity.Email) {
				logger.WarnContext(r.Context(), "Non-admin access to admin route",
					slog.String("userID", identity.UID),
					slog.String("path", r.URL.Path))
				api.ErrorResponse(w, r, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
