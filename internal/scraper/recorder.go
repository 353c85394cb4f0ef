package scraper

import (
	"context"
	"sync"

	"github.com/FranksOps/lumen/internal/storage"
)

// Getter is anything that fetches a URL into a record.
type Getter interface {
	Fetch(ctx context.Context, url string) (*storage.FetchRecord, error)
}

// Recorder passes fetches through to a Getter and keeps every record it
// returns, so a run can summarize its HTTP activity.
type Recorder struct {
	next Getter

	mu      sync.Mutex
	records []*storage.FetchRecord
}

// NewRecorder wraps g.
func NewRecorder(g Getter) *Recorder {
	return &Recorder{next: g}
}

func (r *Recorder) Fetch(ctx context.Context, url string) (*storage.FetchRecord, error) {
	rec, err := r.next.Fetch(ctx, url)
	if rec != nil {
		r.mu.Lock()
		r.records = append(r.records, rec)
		r.mu.Unlock()
	}
	return rec, err
}

// Records returns a copy of what has been fetched so far, in fetch order.
func (r *Recorder) Records() []*storage.FetchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*storage.FetchRecord, len(r.records))
	copy(out, r.records)
	return out
}
