package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type memoryDoc struct {
	data map[string]any
	seq  uint64
}

// MemoryStore keeps documents in process. It backs local development and the
// store-level tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
	seq  uint64
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]memoryDoc),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Get(_ context.Context, path string) (*Document, error) {
	_, id, err := SplitDocumentPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return &Document{ID: id, Path: path, Data: copyMap(doc.data)}, nil
}

func (s *MemoryStore) Create(_ context.Context, path string, data map[string]any) error {
	if _, _, err := SplitDocumentPath(path); err != nil {
		return err
	}
	stored, err := normalize(resolveTimestamps(data, s.now()))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	s.seq++
	s.docs[path] = memoryDoc{data: stored, seq: s.seq}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, path string, data map[string]any, merge bool) error {
	if _, _, err := SplitDocumentPath(path); err != nil {
		return err
	}
	incoming, err := normalize(resolveTimestamps(data, s.now()))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[path]
	if ok && merge {
		for k, v := range incoming {
			existing.data[k] = v
		}
		s.docs[path] = existing
		return nil
	}
	seq := existing.seq
	if !ok {
		s.seq++
		seq = s.seq
	}
	s.docs[path] = memoryDoc{data: incoming, seq: seq}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collectionPath string, opts QueryOptions) ([]Document, error) {
	if err := ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	prefix := collectionPath + "/"

	type entry struct {
		doc Document
		seq uint64
	}
	s.mu.RLock()
	var entries []entry
	for path, doc := range s.docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, entry{
			doc: Document{ID: rest, Path: path, Data: copyMap(doc.data)},
			seq: doc.seq,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if opts.OrderBy != "" {
			if c := compareValues(a.doc.Data[opts.OrderBy], b.doc.Data[opts.OrderBy]); c != 0 {
				if opts.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		if opts.Descending {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})

	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e.doc)
	}
	return docs, nil
}

func (s *MemoryStore) Close() error { return nil }

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		at, aErr := time.Parse(time.RFC3339Nano, av)
		bt, bErr := time.Parse(time.RFC3339Nano, bv)
		if aErr == nil && bErr == nil {
			return at.Compare(bt)
		}
		return strings.Compare(av, bv)
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	return 0
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
