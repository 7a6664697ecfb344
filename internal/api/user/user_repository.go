package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/docstore"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const usersCollection = "users"

var _ UserRepo = (*RepositoryImpl)(nil)

type UserRepo interface {
	// CreateIfAbsent reports whether a new profile was written.
	CreateIfAbsent(ctx context.Context, profile types.UserProfile) (bool, error)
	Get(ctx context.Context, uid string) (*types.UserProfile, error)
	List(ctx context.Context) ([]types.UserProfile, error)
}

type RepositoryImpl struct {
	store  docstore.Store
	logger *slog.Logger
}

func NewRepository(store docstore.Store, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{store: store, logger: logger}
}

func (r *RepositoryImpl) CreateIfAbsent(ctx context.Context, p types.UserProfile) (bool, error) {
	err := r.store.Create(ctx, docstore.Join(usersCollection, p.UID), map[string]any{
		"uid":         p.UID,
		"email":       p.Email,
		"displayName": p.DisplayName,
		"photoURL":    p.PhotoURL,
		"providerId":  p.ProviderID,
		"createdAt":   docstore.ServerTimestamp,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, docstore.ErrAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("failed to create user profile: %w", err)
	}
}

func (r *RepositoryImpl) Get(ctx context.Context, uid string) (*types.UserProfile, error) {
	doc, err := r.store.Get(ctx, docstore.Join(usersCollection, uid))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	var p types.UserProfile
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = doc.ID
	}
	return &p, nil
}

func (r *RepositoryImpl) List(ctx context.Context) ([]types.UserProfile, error) {
	docs, err := r.store.Query(ctx, usersCollection, docstore.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list user profiles: %w", err)
	}
	out := make([]types.UserProfile, 0, len(docs))
	for _, doc := range docs {
		var p types.UserProfile
		if err := doc.DataTo(&p); err != nil {
			r.logger.WarnContext(ctx, "Skipping unreadable user profile", slog.String("path", doc.Path), slog.Any("error", err))
			continue
		}
		if p.UID == "" {
			p.UID = doc.ID
		}
		out = append(out, p)
	}
	return out, nil
}
