// Package sqlite stores the fetch cache in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/lumen/internal/storage"
	_ "modernc.org/sqlite"
)

var _ storage.Backend = (*Backend)(nil)

// Backend is a storage.Backend over database/sql with the modernc driver.
type Backend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	method TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	headers TEXT NOT NULL,
	body BLOB,
	duration_ms INTEGER NOT NULL,
	detected_bot BOOLEAN NOT NULL,
	detection_src TEXT,
	created_at DATETIME NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS fetch_cache_url_created ON fetch_cache (url, created_at DESC);
`

// New opens (or creates) the cache database at dsn.
func New(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	// a single writer avoids SQLITE_BUSY on file databases
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create fetch_cache schema: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Save(ctx context.Context, rec *storage.FetchRecord) error {
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `
	INSERT INTO fetch_cache (
		id, url, method, status_code, headers, body, duration_ms, detected_bot, detection_src, created_at, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.Method, rec.StatusCode, string(headers), rec.Body,
		rec.Duration.Milliseconds(), rec.DetectedBot, rec.DetectionSrc,
		rec.CreatedAt.UTC(), rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert fetch record %s: %w", rec.URL, err)
	}
	return nil
}

func (b *Backend) Query(ctx context.Context, f storage.Filter) ([]*storage.FetchRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.URL != "" {
		where = append(where, "url = ?")
		args = append(args, f.URL)
	}
	if f.DetectedBot != nil {
		where = append(where, "detected_bot = ?")
		args = append(args, *f.DetectedBot)
	}
	if f.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}

	q := `SELECT id, url, method, status_code, headers, body, duration_ms, detected_bot, detection_src, created_at, error FROM fetch_cache`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1 // sqlite: no limit
		}
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, f.Offset)
	}

	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query fetch_cache: %w", err)
	}
	defer rows.Close()

	var out []*storage.FetchRecord
	for rows.Next() {
		var (
			r          storage.FetchRecord
			headers    string
			durationMs int64
			src, msg   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.URL, &r.Method, &r.StatusCode, &headers, &r.Body,
			&durationMs, &r.DetectedBot, &src, &r.CreatedAt, &msg); err != nil {
			return nil, fmt.Errorf("scan fetch record: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.DetectionSrc = src.String
		r.Error = msg.String
		if err := json.Unmarshal([]byte(headers), &r.Headers); err != nil {
			return nil, fmt.Errorf("decode headers for %s: %w", r.URL, err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetch_cache: %w", err)
	}
	return out, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
