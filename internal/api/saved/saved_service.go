package saved

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/notification"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Save stores the text fields synchronously. A missing image is filled in
	// later by a background task; that task never fails the save.
	Save(ctx context.Context, userID string, destination types.Destination) (imagePending bool, err error)
	List(ctx context.Context, userID string) ([]types.SavedDestination, error)
}

type ServiceImpl struct {
	repo     Repository
	images   recommendation.Enricher
	runner   recommendation.TaskRunner
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewServiceImpl accepts a nil images enricher, in which case saved
// destinations keep whatever image they were saved with.
func NewServiceImpl(repo Repository, images recommendation.Enricher, runner recommendation.TaskRunner, notifier notification.Notifier, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, images: images, runner: runner, notifier: notifier, logger: logger}
}

func (s *ServiceImpl) Save(ctx context.Context, userID string, d types.Destination) (bool, error) {
	ctx, span := otel.Tracer("SavedService").Start(ctx, "Save", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("destination.name", d.Name),
	))
	defer span.End()

	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return false, fmt.Errorf("%w: name must not be empty", types.ErrInvalidInput)
	}

	if err := s.repo.Upsert(ctx, userID, d); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save destination", slog.String("userID", userID), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Save failed")
		return false, err
	}

	if d.ImageURL != "" || s.images == nil || s.runner == nil {
		return false, nil
	}
	s.runner.Go(ctx, "patch-saved-image", func(ctx context.Context) error {
		return s.patchImage(ctx, userID, d)
	})
	span.SetAttributes(attribute.Bool("image.pending", true))
	return true, nil
}

func (s *ServiceImpl) patchImage(ctx context.Context, userID string, d types.Destination) error {
	enrichment, err := s.images.Enrich(ctx, d)
	if err == nil && enrichment.ImageURL == "" {
		err = errors.New("no image produced")
	}
	if err == nil {
		err = s.repo.PatchImage(ctx, userID, d.Name, enrichment.ImageURL)
	}
	if err != nil {
		s.notify(ctx, userID, d.Name, types.NotificationImagePatchFailed,
			fmt.Sprintf("Gambar untuk %s tidak dapat dibuat. Destinasi tetap tersimpan.", d.Name))
		return fmt.Errorf("image patch for %q: %w", d.Name, err)
	}
	s.notify(ctx, userID, d.Name, types.NotificationImagePatched,
		fmt.Sprintf("Gambar untuk %s sudah tersedia.", d.Name))
	return nil
}

func (s *ServiceImpl) notify(ctx context.Context, userID, subject string, kind types.NotificationKind, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, types.Notification{UserID: userID, Kind: kind, Subject: subject, Message: message})
}

func (s *ServiceImpl) List(ctx context.Context, userID string) ([]types.SavedDestination, error) {
	out, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list saved destinations", slog.String("userID", userID), slog.Any("error", err))
		return nil, err
	}
	return out, nil
}
