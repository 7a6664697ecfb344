package saved

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/docstore"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const (
	usersCollection = "users"
	savedCollection = "savedDestinations"
	savedAtField    = "savedAt"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Upsert(ctx context.Context, userID string, destination types.Destination) error
	PatchImage(ctx context.Context, userID, name, imageURL string) error
	List(ctx context.Context, userID string) ([]types.SavedDestination, error)
}

type RepositoryImpl struct {
	store  docstore.Store
	logger *slog.Logger
}

func NewRepository(store docstore.Store, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{store: store, logger: logger}
}

// DocumentID derives the record key from the destination name; slashes are
// not allowed in document IDs.
func DocumentID(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

func savedPath(userID string) string {
	return docstore.Join(usersCollection, userID, savedCollection)
}

func (r *RepositoryImpl) Upsert(ctx context.Context, userID string, d types.Destination) error {
	data := map[string]any{
		"name":            d.Name,
		"description":     d.Description,
		"estimatedCost":   d.EstimatedCost,
		"destinationType": d.DestinationType,
		savedAtField:      docstore.ServerTimestamp,
	}
	if d.ImageURL != "" {
		data["imageUrl"] = d.ImageURL
	}
	if d.Latitude != nil && d.Longitude != nil {
		data["latitude"] = *d.Latitude
		data["longitude"] = *d.Longitude
	}
	if err := r.store.Upsert(ctx, docstore.Join(savedPath(userID), DocumentID(d.Name)), data, true); err != nil {
		return fmt.Errorf("failed to save destination: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) PatchImage(ctx context.Context, userID, name, imageURL string) error {
	err := r.store.Upsert(ctx, docstore.Join(savedPath(userID), DocumentID(name)), map[string]any{"imageUrl": imageURL}, true)
	if err != nil {
		return fmt.Errorf("failed to patch destination image: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) List(ctx context.Context, userID string) ([]types.SavedDestination, error) {
	docs, err := r.store.Query(ctx, savedPath(userID), docstore.QueryOptions{OrderBy: savedAtField, Descending: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list saved destinations: %w", err)
	}
	out := make([]types.SavedDestination, 0, len(docs))
	for _, doc := range docs {
		var sd types.SavedDestination
		if err := doc.DataTo(&sd); err != nil {
			r.logger.WarnContext(ctx, "Skipping unreadable saved destination", slog.String("path", doc.Path), slog.Any("error", err))
			continue
		}
		out = append(out, sd)
	}
	return out, nil
}
