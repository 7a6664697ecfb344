package history

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/docstore"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const (
	usersCollection   = "users"
	historyCollection = "searchHistory"
	searchedAtField   = "searchedAt"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Insert(ctx context.Context, userID, entryID string, input types.PreferenceRequest, destinations []types.Destination) error
	ListByUser(ctx context.Context, userID string, limit int) ([]types.SearchHistoryEntry, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

type RepositoryImpl struct {
	store  docstore.Store
	logger *slog.Logger
}

func NewRepository(store docstore.Store, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{store: store, logger: logger}
}

func historyPath(userID string) string {
	return docstore.Join(usersCollection, userID, historyCollection)
}

func (r *RepositoryImpl) Insert(ctx context.Context, userID, entryID string, input types.PreferenceRequest, destinations []types.Destination) error {
	ctx, span := otel.Tracer("HistoryRepository").Start(ctx, "Insert", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("destinations.count", len(destinations)),
	))
	defer span.End()

	err := r.store.Create(ctx, docstore.Join(historyPath(userID), entryID), map[string]any{
		"userId":        userID,
		"input":         input,
		"destinations":  destinations,
		searchedAtField: docstore.ServerTimestamp,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return fmt.Errorf("failed to insert search history: %w", err)
	}
	span.SetStatus(codes.Ok, "History inserted")
	return nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID string, limit int) ([]types.SearchHistoryEntry, error) {
	ctx, span := otel.Tracer("HistoryRepository").Start(ctx, "ListByUser", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	docs, err := r.store.Query(ctx, historyPath(userID), docstore.QueryOptions{
		OrderBy:    searchedAtField,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}

	entries := make([]types.SearchHistoryEntry, 0, len(docs))
	for _, doc := range docs {
		var entry types.SearchHistoryEntry
		if err := doc.DataTo(&entry); err != nil {
			r.logger.WarnContext(ctx, "Skipping unreadable history entry", slog.String("path", doc.Path), slog.Any("error", err))
			continue
		}
		entry.ID = doc.ID
		if entry.UserID == "" {
			entry.UserID = userID
		}
		entries = append(entries, entry)
	}
	span.SetAttributes(attribute.Int("entries.count", len(entries)))
	return entries, nil
}

func (r *RepositoryImpl) ListUserIDs(ctx context.Context) ([]string, error) {
	docs, err := r.store.Query(ctx, usersCollection, docstore.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}
