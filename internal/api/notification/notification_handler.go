package notification

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/auth"
)

type Handler struct {
	feed   Feed
	logger *slog.Logger
}

func NewHandler(feed Feed, logger *slog.Logger) *Handler {
	return &Handler{feed: feed, logger: logger}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NotificationHandler").Start(r.Context(), "ListNotifications", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/notifications"),
	))
	defer span.End()

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		h.logger.ErrorContext(ctx, "User ID not found in context", slog.String("handler", "ListNotifications"))
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID))

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"notifications": h.feed.List(ctx, userID),
	})
}
