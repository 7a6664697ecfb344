package history

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
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// GetHistory lists the caller's searches, most recent first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("HistoryHandler").Start(r.Context(), "GetHistory", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/history"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetHistory"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID))

	entries, err := h.service.List(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch history", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch search history")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"history": entries})
}
