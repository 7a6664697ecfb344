package user

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const defaultProvider = "password"

var _ UserService = (*ServiceImpl)(nil)

type UserService interface {
	// EnsureProfile creates users/{uid} on first sign-in. Existing profiles
	// are never overwritten.
	EnsureProfile(ctx context.Context, identity types.Identity) (*types.UserProfile, error)
	GetProfile(ctx context.Context, uid string) (*types.UserProfile, error)
	ListProfiles(ctx context.Context) ([]types.UserProfile, error)
	DailySignups(ctx context.Context) ([]types.DailySignups, error)
}

type ServiceImpl struct {
	repo   UserRepo
	known  *cache.Cache
	logger *slog.Logger
}

func NewServiceImpl(repo UserRepo, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		known:  cache.New(time.Hour, 10*time.Minute),
		logger: logger,
	}
}

func (s *ServiceImpl) EnsureProfile(ctx context.Context, identity types.Identity) (*types.UserProfile, error) {
	if cached, ok := s.known.Get(identity.UID); ok {
		return cached.(*types.UserProfile), nil
	}
	ctx, span := otel.Tracer("UserService").Start(ctx, "EnsureProfile", trace.WithAttributes(
		attribute.String("user.id", identity.UID),
	))
	defer span.End()

	provider := identity.ProviderID
	if provider == "" {
		provider = defaultProvider
	}
	created, err := s.repo.CreateIfAbsent(ctx, types.UserProfile{
		UID:         identity.UID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		ProviderID:  provider,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to ensure user profile", slog.String("userID", identity.UID), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "EnsureProfile failed")
		return nil, err
	}
	if created {
		s.logger.InfoContext(ctx, "Created user profile", slog.String("userID", identity.UID), slog.String("provider", provider))
	}

	profile, err := s.repo.Get(ctx, identity.UID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "EnsureProfile read-back failed")
		return nil, err
	}
	s.known.SetDefault(identity.UID, profile)
	return profile, nil
}

func (s *ServiceImpl) GetProfile(ctx context.Context, uid string) (*types.UserProfile, error) {
	return s.repo.Get(ctx, uid)
}

func (s *ServiceImpl) ListProfiles(ctx context.Context) ([]types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "ListProfiles")
	defer span.End()

	profiles, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
	return profiles, nil
}

// DailySignups counts profiles per UTC calendar day, oldest day first.
// Profiles without a creation time are not counted.
func (s *ServiceImpl) DailySignups(ctx context.Context) ([]types.DailySignups, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return CountByDay(profiles), nil
}

func CountByDay(profiles []types.UserProfile) []types.DailySignups {
	counts := make(map[string]int)
	for _, p := range profiles {
		if p.CreatedAt.IsZero() {
			continue
		}
		counts[p.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	out := make([]types.DailySignups, 0, len(counts))
	for day, n := range counts {
		out = append(out, types.DailySignups{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
