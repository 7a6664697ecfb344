package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appLogger "github.com/FACorreiaa/go-tourease-suggestions/app/logger"
	appMiddleware "github.com/FACorreiaa/go-tourease-suggestions/app/middleware"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/admin"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/assistant"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/history"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/notification"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/saved"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/user"
)

// Config contains the handlers and middleware the router mounts.
type Config struct {
	Logger                 *slog.Logger
	AllowedOrigins         []string
	RequestTimeout         time.Duration
	RateLimit              int
	AuthenticateMiddleware func(http.Handler) http.Handler
	IsAdmin                func(email string) bool

	RecommendationHandler *recommendation.Handler
	HistoryHandler        *history.Handler
	SavedHandler          *saved.Handler
	AssistantHandler      *assistant.Handler
	PlacesHandler         *places.Handler
	UserHandler           *user.HandlerImpl
	NotificationHandler   *notification.Handler
	AdminHandler          *admin.Handler
}

// SetupRouter builds the full HTTP handler including the server-wide
// middleware chain.
func SetupRouter(cfg *Config) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)
		r.Use(appMiddleware.RateLimit(cfg.RateLimit))

		r.Post("/recommendations", cfg.RecommendationHandler.GetRecommendations)
		r.Get("/history", cfg.HistoryHandler.GetHistory)
		r.Post("/saved", cfg.SavedHandler.SaveDestination)
		r.Get("/saved", cfg.SavedHandler.ListSaved)
		r.Post("/assistant/ask", cfg.AssistantHandler.Ask)
		r.Post("/places/resolve", cfg.PlacesHandler.ResolvePlace)
		r.Get("/me", cfg.UserHandler.GetMe)
		r.Get("/notifications", cfg.NotificationHandler.ListNotifications)

		r.Route("/admin", func(r chi.Router) {
			r.Use(appMiddleware.RequireAdmin(cfg.Logger, cfg.IsAdmin))
			r.Get("/histories", cfg.AdminHandler.ListHistories)
			r.Get("/users", cfg.AdminHandler.ListUsers)
			r.Get("/stats/signups", cfg.AdminHandler.SignupStats)
		})
	})

	return r
}
