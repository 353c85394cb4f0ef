// Package jsonl stores the fetch cache as newline-delimited JSON, one record
// per line, appended in fetch order.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/FranksOps/lumen/internal/storage"
)

var _ storage.Backend = (*Backend)(nil)

// maxLine bounds a single record; cached SERP pages can exceed bufio's default.
const maxLine = 16 << 20

// Backend is a storage.Backend over an append-only file.
type Backend struct {
	mu   sync.Mutex
	file *os.File
}

// New opens path for appending, creating it when missing.
func New(path string) (*Backend, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	return &Backend{file: f}, nil
}

func (b *Backend) Save(_ context.Context, rec *storage.FetchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode fetch record: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append fetch record: %w", err)
	}
	return nil
}

func (b *Backend) Query(ctx context.Context, f storage.Filter) ([]*storage.FetchRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind cache file: %w", err)
	}

	var matched []*storage.FetchRecord
	sc := bufio.NewScanner(b.file)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var r storage.FetchRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("decode fetch record: %w", err)
		}
		if !matches(&r, f) {
			continue
		}
		matched = append(matched, &r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	// file order is oldest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func matches(r *storage.FetchRecord, f storage.Filter) bool {
	if f.URL != "" && r.URL != f.URL {
		return false
	}
	if f.DetectedBot != nil && r.DetectedBot != *f.DetectedBot {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
