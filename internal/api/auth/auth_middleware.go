package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	IdentityKey contextKey = "identity"
)

// Authenticate validates the bearer token and stores the identity in the
// request context. onAuthenticated, when set, runs before the next handler.
func Authenticate(logger *slog.Logger, verifier TokenVerifier, onAuthenticated func(ctx context.Context, identity types.Identity)) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			identity, err := verifier.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired authentication token")
				return
			}

			ctx = WithIdentity(ctx, *identity)
			if onAuthenticated != nil {
				onAuthenticated(ctx, *identity)
			}
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", identity.UID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, identity)
	return context.WithValue(ctx, UserIDKey, identity.UID)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func GetIdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(types.Identity)
	return identity, ok
}
