// Package docstore is the hierarchical document API the repositories persist
// through. Paths alternate collection and document segments, e.g.
// users/{uid}/savedDestinations/{id}.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrAlreadyExists = errors.New("docstore: document already exists")
	ErrInvalidPath   = errors.New("docstore: invalid path")
)

type serverTimestamp struct{}

// ServerTimestamp is replaced by the backend with its own clock on write.
var ServerTimestamp = serverTimestamp{}

// Document is a stored document with its data decoded into plain Go values.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// DataTo decodes the document data into v through its JSON representation so
// every backend yields the same shape.
func (d *Document) DataTo(v any) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", d.Path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.Path, err)
	}
	return nil
}

type QueryOptions struct {
	OrderBy    string
	Descending bool
	Limit      int
}

type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	// Create fails with ErrAlreadyExists instead of overwriting.
	Create(ctx context.Context, path string, data map[string]any) error
	// Upsert writes the document. With merge only the given top-level fields
	// are replaced, otherwise the whole document is.
	Upsert(ctx context.Context, path string, data map[string]any, merge bool) error
	Query(ctx context.Context, collectionPath string, opts QueryOptions) ([]Document, error)
	Close() error
}

// Join builds a path from its segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitDocumentPath returns the parent collection path and the document ID.
func SplitDocumentPath(path string) (string, string, error) {
	segments, err := split(path)
	if err != nil {
		return "", "", err
	}
	if len(segments)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1], nil
}

// ValidateCollectionPath checks that path names a collection.
func ValidateCollectionPath(path string) error {
	segments, err := split(path)
	if err != nil {
		return err
	}
	if len(segments)%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return nil
}

func split(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

// resolveTimestamps returns a copy of data with ServerTimestamp sentinels
// replaced by now.
func resolveTimestamps(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

// normalize round-trips data through JSON so stored values match what a
// read returns regardless of the Go types the caller wrote.
func normalize(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
