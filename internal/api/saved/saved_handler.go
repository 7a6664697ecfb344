package saved

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

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// SaveDestination stores a destination for the caller. The response is 202
// because a missing image is attached asynchronously.
func (h *Handler) SaveDestination(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SavedHandler").Start(r.Context(), "SaveDestination", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/saved"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SaveDestination"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID))

	var d types.Destination
	if err := api.DecodeJSONBody(w, r, &d); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pending, err := h.service.Save(ctx, userID, d)
	if err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to save destination", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to save destination")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusAccepted, map[string]any{
		"destination":  d,
		"imagePending": pending,
	})
}

func (h *Handler) ListSaved(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SavedHandler").Start(r.Context(), "ListSaved", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/saved"),
	))
	defer span.End()

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	out, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list saved destinations", slog.String("handler", "ListSaved"), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch saved destinations")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"saved": out})
}
