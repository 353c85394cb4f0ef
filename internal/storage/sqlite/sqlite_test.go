package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/lumen/internal/storage"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_SaveAndQuery(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := &storage.FetchRecord{
		ID:           "rec-1",
		URL:          "https://www.google.com/search?q=acme",
		Method:       "GET",
		StatusCode:   200,
		Headers:      map[string][]string{"Content-Type": {"text/html"}},
		Body:         []byte("<html>results</html>"),
		Duration:     50 * time.Millisecond,
		DetectedBot:  true,
		DetectionSrc: "Google",
		CreatedAt:    now,
	}
	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := b.Query(ctx, storage.Filter{URL: rec.URL})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	r := got[0]
	if r.ID != rec.ID || r.StatusCode != 200 || string(r.Body) != string(rec.Body) {
		t.Errorf("record mismatch: %+v", r)
	}
	if r.Headers["Content-Type"][0] != "text/html" {
		t.Errorf("headers not restored: %v", r.Headers)
	}
	if r.Duration != 50*time.Millisecond {
		t.Errorf("expected 50ms duration, got %v", r.Duration)
	}
	if !r.DetectedBot || r.DetectionSrc != "Google" {
		t.Errorf("detection not restored: %v %q", r.DetectedBot, r.DetectionSrc)
	}
	if r.CreatedAt.Unix() != now.Unix() {
		t.Errorf("expected created_at %v, got %v", now, r.CreatedAt)
	}

	past := now.Add(-time.Hour)
	if got, _ := b.Query(ctx, storage.Filter{Since: &past}); len(got) != 1 {
		t.Errorf("Since filter: expected 1, got %d", len(got))
	}
	no := false
	if got, _ := b.Query(ctx, storage.Filter{DetectedBot: &no}); len(got) != 0 {
		t.Errorf("DetectedBot=false filter: expected 0, got %d", len(got))
	}
}

func TestBackend_NewestFirstWithOffset(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, id := range []string{"a", "b", "c"} {
		rec := &storage.FetchRecord{
			ID: id, URL: "https://acme.example/", Method: "GET", StatusCode: 200,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := b.Save(ctx, rec); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	got, err := b.Query(ctx, storage.Filter{URL: "https://acme.example/", Offset: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %v", ids(got))
	}

	latest, err := storage.Lookup(ctx, b, "https://acme.example/")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if latest.ID != "c" {
		t.Errorf("expected newest record c, got %s", latest.ID)
	}
}

func ids(recs []*storage.FetchRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
