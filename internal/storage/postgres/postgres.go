// Package postgres stores the fetch cache in PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/lumen/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Backend = (*Backend)(nil)

// Backend is a storage.Backend over a pgx connection pool.
type Backend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	method TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	headers JSONB NOT NULL,
	body BYTEA,
	duration_ms BIGINT NOT NULL,
	detected_bot BOOLEAN NOT NULL,
	detection_src TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS fetch_cache_url_created ON fetch_cache (url, created_at DESC);
`

// New connects to dsn and ensures the cache table exists.
func New(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create fetch_cache schema: %w", err)
	}
	return &Backend{pool: pool}, nil
}

func (b *Backend) Save(ctx context.Context, rec *storage.FetchRecord) error {
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}

	_, err = b.pool.Exec(ctx, `
	INSERT INTO fetch_cache (
		id, url, method, status_code, headers, body, duration_ms, detected_bot, detection_src, created_at, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.URL, rec.Method, rec.StatusCode, headers, rec.Body,
		rec.Duration.Milliseconds(), rec.DetectedBot, rec.DetectionSrc,
		rec.CreatedAt, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert fetch record %s: %w", rec.URL, err)
	}
	return nil
}

// buildQuery renders the filter into SQL with numbered placeholders.
func buildQuery(f storage.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.URL != "" {
		where = append(where, "url = "+arg(f.URL))
	}
	if f.DetectedBot != nil {
		where = append(where, "detected_bot = "+arg(*f.DetectedBot))
	}
	if f.Since != nil {
		where = append(where, "created_at >= "+arg(*f.Since))
	}

	q := `SELECT id, url, method, status_code, headers, body, duration_ms, detected_bot, detection_src, created_at, error FROM fetch_cache`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}
	return q, args
}

func (b *Backend) Query(ctx context.Context, f storage.Filter) ([]*storage.FetchRecord, error) {
	q, args := buildQuery(f)
	rows, err := b.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query fetch_cache: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*storage.FetchRecord, error) {
		var (
			r          storage.FetchRecord
			headers    []byte
			durationMs int64
			src, msg   *string
		)
		if err := row.Scan(&r.ID, &r.URL, &r.Method, &r.StatusCode, &headers, &r.Body,
			&durationMs, &r.DetectedBot, &src, &r.CreatedAt, &msg); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if src != nil {
			r.DetectionSrc = *src
		}
		if msg != nil {
			r.Error = *msg
		}
		if err := json.Unmarshal(headers, &r.Headers); err != nil {
			return nil, fmt.Errorf("decode headers for %s: %w", r.URL, err)
		}
		return &r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan fetch_cache: %w", err)
	}
	return out, nil
}

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
