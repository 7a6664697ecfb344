package recommendation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/auth"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/history"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

// TaskRunner schedules work that outlives the request.
type TaskRunner interface {
	Go(ctx context.Context, name string, task func(ctx context.Context) error)
}

type Handler struct {
	service Service
	history history.Service
	runner  TaskRunner
	logger  *slog.Logger
}

func NewHandler(service Service, history history.Service, runner TaskRunner, logger *slog.Logger) *Handler {
	return &Handler{service: service, history: history, runner: runner, logger: logger}
}

// GetRecommendations runs the recommendation pipeline for the caller's
// preferences and optionally records the search.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendationHandler").Start(r.Context(), "GetRecommendations", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/recommendations"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetRecommendations"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID))
	l = l.With(slog.String("userID", userID))

	var req types.RecommendationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.RequireNonEmpty(map[string]string{
		"budget":         req.Budget,
		"interests":      req.Interests,
		"numberOfPeople": req.NumberOfPeople,
		"location":       req.Location,
	}); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	destinations, err := h.service.GetRecommendations(ctx, req.PreferenceRequest)
	if err != nil {
		l.ErrorContext(ctx, "Recommendation pipeline failed", slog.Any("error", err))
		if ctx.Err() != nil {
			// the timeout middleware answers once the request deadline fires
			return
		}
		if errors.Is(err, types.ErrOracleUnavailable) {
			api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Recommendation service is unavailable, please retry")
			return
		}
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate recommendations")
		return
	}

	if req.SaveHistory && h.history != nil {
		input := req.PreferenceRequest
		h.runner.Go(ctx, "record-search-history", func(ctx context.Context) error {
			h.history.Record(ctx, userID, input, destinations)
			return nil
		})
	}

	l.InfoContext(ctx, "Recommendations generated", slog.Int("count", len(destinations)))
	api.WriteJSONResponse(w, r, http.StatusOK, types.RecommendationResponse{Destinations: destinations})
}
