package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/notification"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Record persists a search. It is best effort and never reports failure
	// to the caller.
	Record(ctx context.Context, userID string, input types.PreferenceRequest, destinations []types.Destination)
	List(ctx context.Context, userID string) ([]types.SearchHistoryEntry, error)
	ListAll(ctx context.Context, opts types.HistoryListOptions) ([]types.SearchHistoryEntry, error)
}

type ServiceImpl struct {
	repo     Repository
	notifier notification.Notifier
	logger   *slog.Logger
}

func NewServiceImpl(repo Repository, notifier notification.Notifier, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, notifier: notifier, logger: logger}
}

// stripImages keeps history light: images are regenerated on demand, while
// coordinates are kept.
func stripImages(destinations []types.Destination) []types.Destination {
	out := make([]types.Destination, len(destinations))
	copy(out, destinations)
	for i := range out {
		out[i].ImageURL = ""
	}
	return out
}

func (s *ServiceImpl) Record(ctx context.Context, userID string, input types.PreferenceRequest, destinations []types.Destination) {
	ctx, span := otel.Tracer("HistoryService").Start(ctx, "Record", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Record"), slog.String("userID", userID))
	if userID == "" {
		l.WarnContext(ctx, "Skipping history write without user")
		return
	}

	entryID := uuid.NewString()
	if err := s.repo.Insert(ctx, userID, entryID, input, stripImages(destinations)); err != nil {
		l.ErrorContext(ctx, "Failed to record search history", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "History write failed")
		metrics.Get().HistoryWriteErrorsTotal.Add(ctx, 1)
		if s.notifier != nil {
			s.notifier.Notify(ctx, types.Notification{
				UserID:  userID,
				Kind:    types.NotificationHistoryWriteFailed,
				Message: "Riwayat pencarian tidak dapat disimpan.",
			})
		}
		return
	}
	l.DebugContext(ctx, "Search history recorded", slog.String("entryID", entryID))
	span.SetStatus(codes.Ok, "History recorded")
}

func (s *ServiceImpl) List(ctx context.Context, userID string) ([]types.SearchHistoryEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID, 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list search history", slog.String("userID", userID), slog.Any("error", err))
		return nil, err
	}
	return entries, nil
}

func (s *ServiceImpl) ListAll(ctx context.Context, opts types.HistoryListOptions) ([]types.SearchHistoryEntry, error) {
	ctx, span := otel.Tracer("HistoryService").Start(ctx, "ListAll", trace.WithAttributes(
		attribute.Int("per_user_limit", opts.PerUserLimit),
	))
	defer span.End()

	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Listing users failed")
		return nil, err
	}

	all := make([]types.SearchHistoryEntry, 0)
	for _, userID := range userIDs {
		entries, err := s.repo.ListByUser(ctx, userID, opts.PerUserLimit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Listing history failed")
			return nil, fmt.Errorf("history for user %s: %w", userID, err)
		}
		all = append(all, entries...)
	}
	span.SetAttributes(attribute.Int("users.count", len(userIDs)), attribute.Int("entries.count", len(all)))
	return all, nil
}
