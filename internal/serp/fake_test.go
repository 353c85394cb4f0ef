package serp

import (
	"context"
	"errors"
	"sync"

	"github.com/FranksOps/lumen/internal/storage"
)

// fakeFetcher serves canned records keyed by URL.
type fakeFetcher struct {
	mu      sync.Mutex
	records map[string]*storage.FetchRecord
	urls    []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*storage.FetchRecord, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return &storage.FetchRecord{URL: url, Error: err.Error()}, err
	}
	if rec, ok := f.records[url]; ok {
		return rec, nil
	}
	return &storage.FetchRecord{URL: url, StatusCode: 404}, nil
}

// stubProvider returns fixed results or an error and counts calls.
type stubProvider struct {
	results []Result
	err     error
	calls   int
	limits  []int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(ctx context.Context, _ string, limit int) ([]Result, error) {
	s.calls++
	s.limits = append(s.limits, limit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.results, s.err
}

var errBoom = errors.New("boom")
