package assistant

import (
	"fmt"
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

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AssistantHandler").Start(r.Context(), "Ask", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/assistant/ask"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Ask"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID))

	var req types.AskRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.RequireNonEmpty(map[string]string{
		"destination": req.Destination,
		"question":    req.Question,
	}); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.service.Ask(ctx, req.Destination, req.Question)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadGateway, fmt.Sprintf("Could not answer the question about %s", req.Destination))
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.AskResponse{Answer: answer})
}
