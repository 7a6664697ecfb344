// Package admin serves the dashboard endpoints. Authorization is enforced by
// the RequireAdmin middleware in front of these handlers.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

type HistoryLister interface {
	ListAll(ctx context.Context, opts types.HistoryListOptions) ([]types.SearchHistoryEntry, error)
}

type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]types.UserProfile, error)
	DailySignups(ctx context.Context) ([]types.DailySignups, error)
}

type Handler struct {
	histories HistoryLister
	profiles  ProfileLister
	logger    *slog.Logger
}

func NewHandler(histories HistoryLister, profiles ProfileLister, logger *slog.Logger) *Handler {
	return &Handler{histories: histories, profiles: profiles, logger: logger}
}

func (h *Handler) startSpan(r *http.Request, name, route string) (context.Context, trace.Span) {
	return otel.Tracer("AdminHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
}

// ListHistories returns every user's search history. An optional ?limit
// bounds the entries read per user.
func (h *Handler) ListHistories(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "ListHistories", "/api/v1/admin/histories")
	defer span.End()

	var opts types.HistoryListOptions
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.PerUserLimit = limit
	}
	span.SetAttributes(attribute.Int("per_user_limit", opts.PerUserLimit))

	entries, err := h.histories.ListAll(ctx, opts)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list all histories", slog.String("handler", "ListHistories"), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch search histories")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"history": entries})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "ListUsers", "/api/v1/admin/users")
	defer span.End()

	profiles, err := h.profiles.ListProfiles(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list users", slog.String("handler", "ListUsers"), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"users": profiles})
}

func (h *Handler) SignupStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "SignupStats", "/api/v1/admin/stats/signups")
	defer span.End()

	stats, err := h.profiles.DailySignups(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to compute signups", slog.String("handler", "SignupStats"), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch sign-up statistics")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"signups": stats})
}
