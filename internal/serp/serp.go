// Package serp obtains ranked organic results for a search query.
package serp

import (
	"context"
	"errors"

	"github.com/FranksOps/lumen/internal/storage"
)

// MaxResults caps the results considered per query.
const MaxResults = 10

// ErrChallenged is returned by providers when the engine answered with a
// captcha or bot wall instead of results.
var ErrChallenged = errors.New("search challenged by bot protection")

// Result is one organic search result.
type Result struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Text is the blob analyzed for a result: title and snippet joined by a space.
func (r Result) Text() string {
	return r.Title + " " + r.Snippet
}

// Provider abstracts a search engine. Implementations may scrape, call an
// API, or replay recorded results. limit caps the number returned.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Fetcher is the HTTP capability providers need; *scraper.Fetcher satisfies it.
// Failures other than context cancellation are reported on the record.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*storage.FetchRecord, error)
}

// Normalize drops results without a URL, removes repeated URLs keeping the
// first, and caps the list at limit.
func Normalize(results []Result, limit int) []Result {
	out := make([]Result, 0, min(len(results), max(limit, 0)))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if len(out) >= limit {
			break
		}
		if r.URL == "" {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
	}
	return out
}
