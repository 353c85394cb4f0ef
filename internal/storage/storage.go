// Package storage defines the fetch cache: raw HTTP responses keyed by URL,
// recorded so a run can be replayed offline against the same pages.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FetchRecord is the outcome of a single GET.
type FetchRecord struct {
	ID           string
	URL          string
	Method       string
	StatusCode   int
	Headers      map[string][]string
	Body         []byte
	Duration     time.Duration
	DetectedBot  bool
	DetectionSrc string // e.g. "Cloudflare", "Google"
	CreatedAt    time.Time
	Error        string // non-empty if the fetch failed before an HTTP response
	FromCache    bool   `json:"-"`
}

// OK reports whether the fetch produced a usable 2xx response.
func (r *FetchRecord) OK() bool {
	return r != nil && r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}

// Filter selects cached records. Results are ordered newest first.
type Filter struct {
	URL         string
	DetectedBot *bool
	Since       *time.Time
	Limit       int
	Offset      int
}

// Backend stores and queries fetch records.
type Backend interface {
	Save(ctx context.Context, record *FetchRecord) error
	Query(ctx context.Context, filter Filter) ([]*FetchRecord, error)
	Close() error
}

// Mode controls how the fetcher uses a Backend.
type Mode string

const (
	ModeRead      Mode = "read"      // replay cached responses, never record
	ModeWrite     Mode = "write"     // record every response, never replay
	ModeReadWrite Mode = "readwrite" // replay when cached, record misses
)

// ParseMode validates a configured cache mode. Empty means readwrite.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case "":
		return ModeReadWrite, nil
	case ModeRead, ModeWrite, ModeReadWrite:
		return m, nil
	default:
		return "", fmt.Errorf("unknown cache mode %q", s)
	}
}

// Reads reports whether cached records may be replayed.
func (m Mode) Reads() bool { return m == ModeRead || m == ModeReadWrite }

// Writes reports whether fresh records are saved.
func (m Mode) Writes() bool { return m == ModeWrite || m == ModeReadWrite }

// ErrNotCached is returned by Lookup when no usable record exists.
var ErrNotCached = errors.New("url not cached")

// Lookup returns the newest record for url that carries an HTTP response.
// Records of failed fetches are never replayed.
func Lookup(ctx context.Context, b Backend, url string) (*FetchRecord, error) {
	recs, err := b.Query(ctx, Filter{URL: url, Limit: 5})
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.Error == "" && r.StatusCode > 0 {
			return r, nil
		}
	}
	return nil, ErrNotCached
}
