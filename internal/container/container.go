package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	database "github.com/FACorreiaa/go-tourease-suggestions/app/db"
	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/admin"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/assistant"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/auth"
	generativeAI "github.com/FACorreiaa/go-tourease-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/history"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/notification"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/saved"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/user"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/background"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/docstore"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/media"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/router"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const notificationTTL = 24 * time.Hour

// Dependencies are the external clients the container wires services onto.
// NewContainer builds them from config; tests pass fakes to Build.
type Dependencies struct {
	Store     docstore.Store
	Verifier  auth.TokenVerifier
	Generator generativeAI.ContentGenerator
	PlacesAPI places.PlacesAPI
	Storage   media.ObjectStorage
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Store  docstore.Store
	Runner *background.Runner
	Router http.Handler

	HistoryService   history.Service
	UserService      user.UserService
	AssistantService assistant.Service
	Notifier         *notification.CacheNotifier
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	deps := Dependencies{}

	var verifier auth.IDTokenVerifier
	if cfg.Repositories.Backend == config.BackendFirestore || cfg.Auth.Provider == config.AuthProviderFirebase {
		app, err := database.InitFirebase(ctx, cfg.Firebase, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Repositories.Backend == config.BackendFirestore {
			client, err := database.FirestoreClient(ctx, app)
			if err != nil {
				return nil, err
			}
			deps.Store = docstore.NewFirestoreStore(client, logger)
		}
		if cfg.Auth.Provider == config.AuthProviderFirebase {
			authClient, err := database.AuthClient(ctx, app)
			if err != nil {
				return nil, err
			}
			verifier = authClient
		}
	}

	switch cfg.Repositories.Backend {
	case config.BackendPostgres:
		store, err := newPostgresStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		deps.Store = store
	case config.BackendMemory:
		logger.WarnContext(ctx, "Using in-memory document store, data is lost on restart")
		deps.Store = docstore.NewMemoryStore()
	}

	if cfg.Auth.Provider == config.AuthProviderJWT {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.Auth.JWT)
		if err != nil {
			closeQuietly(deps.Store, logger)
			return nil, err
		}
		deps.Verifier = jwtVerifier
	} else {
		deps.Verifier = auth.NewFirebaseVerifier(verifier)
	}

	gen, err := generativeAI.NewAIClient(ctx, cfg.GenAI, logger)
	if err != nil {
		logger.WarnContext(ctx, "Gemini client unavailable, recommendation and assistant calls will fail", slog.Any("error", err))
		deps.Generator = generativeAI.UnavailableGenerator{Err: err}
	} else {
		deps.Generator = gen
	}

	placesAPI, err := places.NewMapsClient(cfg.Places, &http.Client{Timeout: cfg.Places.Timeout})
	if err != nil {
		closeQuietly(deps.Store, logger)
		return nil, fmt.Errorf("failed to create places client: %w", err)
	}
	if placesAPI == nil {
		logger.WarnContext(ctx, "GOOGLE_MAPS_API_KEY not set, destinations get placeholder images")
	}
	deps.PlacesAPI = placesAPI

	deps.Storage = newObjectStorage(ctx, cfg.Repositories.Minio, logger)

	return Build(cfg, deps, logger), nil
}

func newPostgresStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Store, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		return nil, err
	}
	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, err
	}
	if !database.WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, errors.New("database not ready")
	}
	return docstore.NewPostgresStore(pool, logger), nil
}

// newObjectStorage prefers MinIO and falls back to inline data URLs when it is
// not configured or not reachable.
func newObjectStorage(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) media.ObjectStorage {
	if cfg.Endpoint == "" {
		logger.InfoContext(ctx, "MinIO not configured, generated images are returned as data URLs")
		return media.DataURLStorage{}
	}
	client, err := media.NewMinioClient(cfg)
	if err != nil {
		logger.WarnContext(ctx, "Failed to create MinIO client, using data URLs", slog.Any("error", err))
		return media.DataURLStorage{}
	}
	storage := media.NewMinioStorage(client)
	if err := storage.EnsureBucket(ctx, cfg.Bucket); err != nil {
		logger.WarnContext(ctx, "MinIO bucket unavailable, using data URLs", slog.Any("error", err))
		return media.DataURLStorage{}
	}
	return storage
}

// Build wires services, handlers and the router onto deps.
func Build(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Container {
	runner := background.NewRunner(cfg.Recommendation.BackgroundTimeout, logger)
	notifier := notification.NewCacheNotifier(notificationTTL, logger)

	resolver := places.NewResolver(deps.PlacesAPI, cfg.Places, logger)
	imageService := media.NewGeneratedImageService(
		generativeAI.NewGeminiImageGenerator(deps.Generator, cfg.GenAI.ImageModel),
		media.NewResizeProcessor(cfg.GenAI.MaxImageSize),
		deps.Storage,
		media.ImageServiceConfig{
			Bucket:        cfg.Repositories.Minio.Bucket,
			PublicBaseURL: cfg.Repositories.Minio.PublicBaseURL,
			MaxDimension:  cfg.GenAI.MaxImageSize,
		},
		logger,
	)
	placesEnricher := recommendation.NewPlacesEnricher(resolver)
	imageEnricher := recommendation.NewImageEnricher(imageService)

	var enricher recommendation.Enricher = placesEnricher
	if cfg.Recommendation.Enricher == config.EnricherImage {
		enricher = imageEnricher
	}
	var savedImages recommendation.Enricher = imageEnricher
	if cfg.Recommendation.SavedImagePatch == config.EnricherPlaces {
		savedImages = placesEnricher
	}

	userService := user.NewServiceImpl(user.NewRepository(deps.Store, logger), logger)
	historyService := history.NewServiceImpl(history.NewRepository(deps.Store, logger), notifier, logger)
	savedService := saved.NewServiceImpl(saved.NewRepository(deps.Store, logger), savedImages, runner, notifier, logger)
	oracle := recommendation.NewGeminiOracle(deps.Generator, cfg.GenAI, cfg.Recommendation, resolver, logger)
	recommendationService := recommendation.NewServiceImpl(oracle, enricher, cfg.Recommendation, logger)
	assistantService := assistant.NewServiceImpl(deps.Generator, cfg.GenAI, logger)

	// profile creation is best effort; a failure is retried on the next request
	ensureProfile := func(ctx context.Context, identity types.Identity) {
		_, _ = userService.EnsureProfile(ctx, identity)
	}

	handler := router.SetupRouter(&router.Config{
		Logger:                 logger,
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		RequestTimeout:         cfg.Server.Timeout,
		RateLimit:              cfg.Server.RateLimit,
		AuthenticateMiddleware: auth.Authenticate(logger, deps.Verifier, ensureProfile),
		IsAdmin:                cfg.IsAdmin,

		RecommendationHandler: recommendation.NewHandler(recommendationService, historyService, runner, logger),
		HistoryHandler:        history.NewHandler(historyService, logger),
		SavedHandler:          saved.NewHandler(savedService, logger),
		AssistantHandler:      assistant.NewHandler(assistantService, logger),
		PlacesHandler:         places.NewHandler(resolver, logger),
		UserHandler:           user.NewHandlerImpl(userService, logger),
		NotificationHandler:   notification.NewHandler(notifier, logger),
		AdminHandler:          admin.NewHandler(historyService, userService, logger),
	})

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Store:            deps.Store,
		Runner:           runner,
		Router:           handler,
		HistoryService:   historyService,
		UserService:      userService,
		AssistantService: assistantService,
		Notifier:         notifier,
	}
}

// Close waits for background tasks and releases the document store.
func (c *Container) Close(ctx context.Context) error {
	return errors.Join(c.Runner.Shutdown(ctx), c.Store.Close())
}

func closeQuietly(store docstore.Store, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close document store", slog.Any("error", err))
	}
}
