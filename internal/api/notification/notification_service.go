package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const (
	defaultTTL      = 24 * time.Hour
	maxPerUser      = 50
	cleanupInterval = time.Hour
)

// Notifier receives events produced by background work.
type Notifier interface {
	Notify(ctx context.Context, n types.Notification)
}

// Feed exposes a user's recent notifications, newest first.
type Feed interface {
	List(ctx context.Context, userID string) []types.Notification
}

var (
	_ Notifier = (*CacheNotifier)(nil)
	_ Feed     = (*CacheNotifier)(nil)
)

// CacheNotifier logs every notification and keeps the most recent ones per
// user in memory for the notifications endpoint.
type CacheNotifier struct {
	mu     sync.Mutex
	feed   *cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

func NewCacheNotifier(ttl time.Duration, logger *slog.Logger) *CacheNotifier {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CacheNotifier{
		feed:   cache.New(ttl, cleanupInterval),
		logger: logger,
		now:    time.Now,
	}
}

func (n *CacheNotifier) Notify(ctx context.Context, note types.Notification) {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = n.now().UTC()
	}

	attrs := []any{
		slog.String("userID", note.UserID),
		slog.String("kind", string(note.Kind)),
		slog.String("subject", note.Subject),
		slog.String("message", note.Message),
	}
	switch note.Kind {
	case types.NotificationImagePatchFailed, types.NotificationHistoryWriteFailed:
		n.logger.WarnContext(ctx, "User notification", attrs...)
	default:
		n.logger.InfoContext(ctx, "User notification", attrs...)
	}

	if note.UserID == "" {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	var existing []types.Notification
	if v, ok := n.feed.Get(note.UserID); ok {
		existing = v.([]types.Notification)
	}
	updated := make([]types.Notification, 0, len(existing)+1)
	updated = append(updated, note)
	updated = append(updated, existing...)
	if len(updated) > maxPerUser {
		updated = updated[:maxPerUser]
	}
	n.feed.SetDefault(note.UserID, updated)
}

func (n *CacheNotifier) List(ctx context.Context, userID string) []types.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.feed.Get(userID)
	if !ok {
		return []types.Notification{}
	}
	stored := v.([]types.Notification)
	return append([]types.Notification(nil), stored...)
}
