package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-tourease-suggestions/app/observability/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var _ Store = (*PostgresStore)(nil)

// PgxIface is the subset of *pgxpool.Pool the store needs; pgxmock satisfies it.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps every document as a JSONB row of the documents table.
// Ordering fields are expected to hold RFC 3339 timestamps.
type PostgresStore struct {
	pgpool PgxIface
	logger *slog.Logger
	now    func() time.Time
}

func NewPostgresStore(pgpool PgxIface, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		pgpool: pgpool,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostgresStore) Get(ctx context.Context, path string) (*Document, error) {
	_, id, err := SplitDocumentPath(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	var raw []byte
	err = s.pgpool.QueryRow(ctx, `SELECT data FROM documents WHERE path = $1`, path).Scan(&raw)
	s.observe(ctx, "get", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		s.logger.ErrorContext(ctx, "Failed to read document", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("docstore: get %s: %w", path, err)
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("docstore: decode %s: %w", path, err)
	}
	return &Document{ID: id, Path: path, Data: data}, nil
}

func (s *PostgresStore) Create(ctx context.Context, path string, data map[string]any) error {
	collection, id, err := SplitDocumentPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(resolveTimestamps(data, s.now()))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	start := time.Now()
	tag, err := s.pgpool.Exec(ctx, `
		INSERT INTO documents (path, collection, doc_id, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO NOTHING`, path, collection, id, raw)
	s.observe(ctx, "create", start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create document", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("docstore: create %s: %w", path, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, path string, data map[string]any, merge bool) error {
	collection, id, err := SplitDocumentPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(resolveTimestamps(data, s.now()))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}

	update := "data = EXCLUDED.data"
	if merge {
		update = "data = documents.data || EXCLUDED.data"
	}
	query := `
		INSERT INTO documents (path, collection, doc_id, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE SET ` + update + `, updated_at = NOW()`

	start := time.Now()
	_, err = s.pgpool.Exec(ctx, query, path, collection, id, raw)
	s.observe(ctx, "upsert", start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert document", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("docstore: upsert %s: %w", path, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collectionPath string, opts QueryOptions) ([]Document, error) {
	if err := ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	args := []any{collectionPath}
	query := `SELECT doc_id, path, data FROM documents WHERE collection = $1`
	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}
	if opts.OrderBy != "" {
		args = append(args, opts.OrderBy)
		query += fmt.Sprintf(" ORDER BY (data->>$%d)::timestamptz %s NULLS LAST, created_at %s", len(args), direction, direction)
	} else {
		query += " ORDER BY created_at " + direction
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	start := time.Now()
	rows, err := s.pgpool.Query(ctx, query, args...)
	if err != nil {
		s.observe(ctx, "query", start, err)
		s.logger.ErrorContext(ctx, "Failed to query documents", slog.String("collection", collectionPath), slog.Any("error", err))
		return nil, fmt.Errorf("docstore: query %s: %w", collectionPath, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			doc Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Path, &raw); err != nil {
			return nil, fmt.Errorf("docstore: scan %s: %w", collectionPath, err)
		}
		doc.Data = map[string]any{}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, fmt.Errorf("docstore: decode %s: %w", doc.Path, err)
		}
		docs = append(docs, doc)
	}
	err = rows.Err()
	s.observe(ctx, "query", start, err)
	if err != nil {
		return nil, fmt.Errorf("docstore: iterate %s: %w", collectionPath, err)
	}
	return docs, nil
}

func (s *PostgresStore) Close() error {
	s.pgpool.Close()
	return nil
}

func (s *PostgresStore) observe(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", op))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
