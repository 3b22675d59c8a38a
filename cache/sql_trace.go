package cache

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/kroma-labs/invoker/cache"

// extractOperation returns the upper-cased first word of query, or "" for
// an empty query.
func extractOperation(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	spaceIdx := strings.IndexAny(query, " \t\n\r")
	if spaceIdx == -1 {
		return strings.ToUpper(query)
	}

	return strings.ToUpper(query[:spaceIdx])
}

// startSpan opens a client span named "cache.sql: <OPERATION>".
func (s *SQLStore) startSpan(ctx context.Context, query string) (context.Context, trace.Span) {
	op := extractOperation(query)

	attrs := []attribute.KeyValue{
		attribute.String("db.system", s.db.DriverName()),
		attribute.String("db.sql.table", s.table),
		attribute.String("db.statement", query),
	}
	if op != "" {
		attrs = append(attrs, attribute.String("db.operation", op))
	}

	return s.tracer.Start(ctx, "cache.sql: "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// endSpan records err on span unless it only signals a missing row.
func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
