package cache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTable is the table used by SQLStore unless overridden.
const DefaultTable = "http_cache_entries"

// SQLStore keeps one row per entry:
//
//	name TEXT PRIMARY KEY, data BLOB, updated_at BIGINT
//
// Queries are written with '?' placeholders and rebound for the driver, so
// the same store serves sqlite and Postgres.
//
// Every statement runs in an OpenTelemetry client span.
type SQLStore struct {
	db     *sqlx.DB
	table  string
	now    func() time.Time
	tracer trace.Tracer
}

// SQLOption configures a SQLStore.
type SQLOption func(*SQLStore)

// WithTable overrides DefaultTable.
func WithTable(name string) SQLOption {
	return func(s *SQLStore) {
		s.table = name
	}
}

// WithSQLTracerProvider sets the provider of the statement spans.
// Default: otel.GetTracerProvider().
func WithSQLTracerProvider(tp trace.TracerProvider) SQLOption {
	return func(s *SQLStore) {
		if tp != nil {
			s.tracer = tp.Tracer(scope)
		}
	}
}

// NewSQLStore creates a SQLStore over db.
// Call EnsureSchema once before use when the table may not exist.
func NewSQLStore(db *sqlx.DB, opts ...SQLOption) *SQLStore {
	s := &SQLStore{
		db:     db,
		table:  DefaultTable,
		now:    time.Now,
		tracer: otel.GetTracerProvider().Tracer(scope),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the entry table if it is missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	blobType := "BLOB"
	if sqlx.BindType(s.db.DriverName()) == sqlx.DOLLAR {
		blobType = "BYTEA"
	}

	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, data %s NOT NULL, updated_at BIGINT NOT NULL)`,
		s.table, blobType,
	)
	ctx, span := s.startSpan(ctx, ddl)
	_, err := s.db.ExecContext(ctx, ddl)
	endSpan(span, err)
	if err != nil {
		return fmt.Errorf("cache: create table %s: %w", s.table, err)
	}

	return nil
}

// OpenRead implements FileStore.
func (s *SQLStore) OpenRead(ctx context.Context, name string) (io.ReadCloser, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT data FROM %s WHERE name = ?`, s.table))

	ctx, span := s.startSpan(ctx, query)
	var blob []byte
	err := s.db.GetContext(ctx, &blob, query, name)
	endSpan(span, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &fs.PathError{Op: "select", Path: name, Err: fs.ErrNotExist}
	}
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(blob)), nil
}

// OpenWrite implements FileStore. The row is upserted on Close.
func (s *SQLStore) OpenWrite(ctx context.Context, name string) (io.WriteCloser, error) {
	query := s.db.Rebind(fmt.Sprintf(
		`INSERT INTO %s (name, data, updated_at) VALUES (?, ?, ?) `+
			`ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.table,
	))

	return &commitWriter{commit: func(b []byte) error {
		spanCtx, span := s.startSpan(ctx, query)
		_, err := s.db.ExecContext(spanCtx, query, name, b, s.now().Unix())
		endSpan(span, err)
		return err
	}}, nil
}
