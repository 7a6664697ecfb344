package user

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/auth"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{userService: userService, logger: logger}
}

// GetMe returns the caller's profile, creating it first if the sign-in hook
// has not done so yet.
func (h *HandlerImpl) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "GetMe", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/me"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetMe"))

	identity, ok := auth.GetIdentityFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "Identity not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(identity.UID))

	profile, err := h.userService.EnsureProfile(ctx, identity)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get user profile", slog.Any("error", err))
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve user profile")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}
