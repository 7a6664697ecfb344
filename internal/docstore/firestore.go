package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ Store = (*FirestoreStore)(nil)

type FirestoreStore struct {
	client *firestore.Client
	logger *slog.Logger
}

func NewFirestoreStore(client *firestore.Client, logger *slog.Logger) *FirestoreStore {
	return &FirestoreStore{client: client, logger: logger}
}

func (s *FirestoreStore) doc(path string) (*firestore.DocumentRef, string, error) {
	_, id, err := SplitDocumentPath(path)
	if err != nil {
		return nil, "", err
	}
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return ref, id, nil
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (*Document, error) {
	ref, id, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		s.logger.ErrorContext(ctx, "Failed to read document", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("docstore: get %s: %w", path, err)
	}
	data, err := normalize(snap.Data())
	if err != nil {
		return nil, fmt.Errorf("docstore: decode %s: %w", path, err)
	}
	return &Document{ID: id, Path: path, Data: data}, nil
}

func (s *FirestoreStore) Create(ctx context.Context, path string, data map[string]any) error {
	ref, _, err := s.doc(path)
	if err != nil {
		return err
	}
	fields, err := toFirestore(data)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fields); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
		}
		s.logger.ErrorContext(ctx, "Failed to create document", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("docstore: create %s: %w", path, err)
	}
	return nil
}

func (s *FirestoreStore) Upsert(ctx context.Context, path string, data map[string]any, merge bool) error {
	ref, _, err := s.doc(path)
	if err != nil {
		return err
	}
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}
	fields, err := toFirestore(data)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, fields, opts...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert document", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("docstore: upsert %s: %w", path, err)
	}
	return nil
}

func (s *FirestoreStore) Query(ctx context.Context, collectionPath string, opts QueryOptions) ([]Document, error) {
	if err := ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	col := s.client.Collection(collectionPath)
	if col == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, collectionPath)
	}

	q := col.Query
	if opts.OrderBy != "" {
		dir := firestore.Asc
		if opts.Descending {
			dir = firestore.Desc
		}
		q = q.OrderBy(opts.OrderBy, dir)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to iterate documents", slog.String("collection", collectionPath), slog.Any("error", err))
			return nil, fmt.Errorf("docstore: query %s: %w", collectionPath, err)
		}
		data, err := normalize(snap.Data())
		if err != nil {
			return nil, fmt.Errorf("docstore: decode %s: %w", snap.Ref.Path, err)
		}
		docs = append(docs, Document{
			ID:   snap.Ref.ID,
			Path: collectionPath + "/" + snap.Ref.ID,
			Data: data,
		})
	}
	return docs, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// toFirestore maps the sentinel timestamp and encodes composite values
// through their json tags, so documents keep the same field names on every
// backend. The Firestore encoder would otherwise use Go field names.
func toFirestore(data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch v.(type) {
		case serverTimestamp:
			out[k] = firestore.ServerTimestamp
		case nil, string, bool, int, int64, float32, float64, time.Time:
			out[k] = v
		default:
			encoded, err := normalizeValue(v)
			if err != nil {
				return nil, fmt.Errorf("docstore: encode field %s: %w", k, err)
			}
			out[k] = encoded
		}
	}
	return out, nil
}
