package serp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// SearXNG queries a SearXNG instance's JSON API.
type SearXNG struct {
	fetcher Fetcher
	base    string
}

// NewSearXNG returns a provider for the instance at base, e.g.
// "http://localhost:8888".
func NewSearXNG(f Fetcher, base string) (*SearXNG, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid searxng base url %q", base)
	}
	return &SearXNG{fetcher: f, base: strings.TrimRight(base, "/")}, nil
}

func (s *SearXNG) Name() string { return "searxng" }

// SearchURL is the API request made for query.
func (s *SearXNG) SearchURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("categories", "general")
	q.Set("pageno", "1")
	return s.base + "/search?" + q.Encode()
}

func (s *SearXNG) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %d", limit)
	}

	rec, err := s.fetcher.Fetch(ctx, s.SearchURL(query))
	if err != nil {
		return nil, err
	}
	if rec.Error != "" {
		return nil, fmt.Errorf("searxng search %q: %s", query, rec.Error)
	}
	if !rec.OK() {
		return nil, fmt.Errorf("searxng api error (status %d)", rec.StatusCode)
	}
	if !gjson.ValidBytes(rec.Body) {
		return nil, fmt.Errorf("searxng search %q: response is not JSON", query)
	}

	var results []Result
	gjson.GetBytes(rec.Body, "results").ForEach(func(_, v gjson.Result) bool {
		results = append(results, Result{
			Title:   strings.TrimSpace(v.Get("title").String()),
			URL:     v.Get("url").String(),
			Snippet: strings.TrimSpace(v.Get("content").String()),
		})
		return true
	})
	return Normalize(results, limit), nil
}
