package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/pricecast-go/internal/logging"
)

const tracerName = "github.com/irfndi/pricecast-go/internal/database"

// TracedDB wraps a pool with a span and a debug log line per statement.
type TracedDB struct {
	pool   DBPool
	tracer trace.Tracer
	logger logrus.FieldLogger
}

// NewTracedDB wraps pool. A nil logger falls back to the logrus standard logger.
func NewTracedDB(pool DBPool, logger logrus.FieldLogger) *TracedDB {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TracedDB{
		pool:   pool,
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}
}

func (db *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := db.start(ctx, "db.query", sql)
	defer span.End()

	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	db.finish(span, "query", start, 0, err)
	return rows, err
}

func (db *TracedDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := db.start(ctx, "db.query_row", sql)
	defer span.End()

	start := time.Now()
	row := db.pool.QueryRow(ctx, sql, args...)
	db.finish(span, "query_row", start, 0, nil)
	return row
}

func (db *TracedDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := db.start(ctx, "db.exec", sql)
	defer span.End()

	start := time.Now()
	tag, err := db.pool.Exec(ctx, sql, args...)
	db.finish(span, "exec", start, tag.RowsAffected(), err)
	return tag, err
}

func (db *TracedDB) start(ctx context.Context, name, sql string) (context.Context, trace.Span) {
	return db.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", sql),
		),
	)
}

func (db *TracedDB) finish(span trace.Span, operation string, start time.Time, rowsAffected int64, err error) {
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	if err != nil {
		RecordDatabaseError(span, err)
	}
	logging.LogDatabaseOperation(db.logger, operation, "", elapsed.Milliseconds(), rowsAffected)
}

// RecordDatabaseError marks span as failed.
func RecordDatabaseError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
