package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/lumen/internal/storage"
	"github.com/google/uuid"
)

func TestBuildQuery(t *testing.T) {
	yes := true
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	q, args := buildQuery(storage.Filter{URL: "https://acme.example/", DetectedBot: &yes, Since: &since, Limit: 5, Offset: 2})
	want := "WHERE url = $1 AND detected_bot = $2 AND created_at >= $3 ORDER BY created_at DESC LIMIT $4 OFFSET $5"
	if !strings.HasSuffix(q, want) {
		t.Errorf("unexpected query:\n%s", q)
	}
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}

	q, args = buildQuery(storage.Filter{})
	if strings.Contains(q, "WHERE") || len(args) != 0 {
		t.Errorf("empty filter should not constrain: %s %v", q, args)
	}
}

func TestBackend(t *testing.T) {
	dsn := os.Getenv("LUMEN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LUMEN_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	target := "https://acme.example/" + uuid.NewString()
	rec := &storage.FetchRecord{
		ID:         uuid.NewString(),
		URL:        target,
		Method:     "GET",
		StatusCode: 200,
		Headers:    map[string][]string{"Content-Type": {"text/html"}},
		Body:       []byte("<html>acme</html>"),
		Duration:   40 * time.Millisecond,
		CreatedAt:  time.Now().UTC(),
	}
	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := storage.Lookup(ctx, b, target)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.ID != rec.ID || string(got.Body) != string(rec.Body) {
		t.Errorf("record mismatch: %+v", got)
	}
	if got.Headers["Content-Type"][0] != "text/html" {
		t.Errorf("headers not restored: %v", got.Headers)
	}
}
