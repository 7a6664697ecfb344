package places

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

func NewHandler(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// ResolvePlace looks up a photo and coordinates for a free-text place name.
func (h *Handler) ResolvePlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlacesHandler").Start(r.Context(), "ResolvePlace", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/places/resolve"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ResolvePlace"))

	var req types.ResolvePlaceRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result := h.resolver.Resolve(ctx, req.Query)
	l.DebugContext(ctx, "Place resolved",
		slog.String("query", req.Query),
		slog.Bool("photoFound", result.PhotoFound),
		slog.Bool("located", result.Located))
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}
