package serp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultGoogleBase is the engine GoogleScrape queries unless told otherwise.
const DefaultGoogleBase = "https://www.google.com"

// organicContainers are the wrappers Google has used for organic results,
// checked in order.
var organicContainers = []string{"div.g", "div.MjjYud", "div.NJo7tc", "div.yuRUbf"}

const snippetSelector = "div.VwiC3b, div[data-sncf='1']"

// GoogleScrape parses results out of the public Google HTML page.
type GoogleScrape struct {
	fetcher Fetcher
	base    string
}

// NewGoogleScrape returns a provider fetching through f. An empty base uses
// DefaultGoogleBase.
func NewGoogleScrape(f Fetcher, base string) *GoogleScrape {
	if base == "" {
		base = DefaultGoogleBase
	}
	return &GoogleScrape{fetcher: f, base: strings.TrimRight(base, "/")}
}

func (g *GoogleScrape) Name() string { return "google" }

// SearchURL is the page fetched for query.
func (g *GoogleScrape) SearchURL(query string) string {
	return g.base + "/search?q=" + url.QueryEscape(query) + "&hl=en"
}

func (g *GoogleScrape) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %d", limit)
	}

	rec, err := g.fetcher.Fetch(ctx, g.SearchURL(query))
	if err != nil {
		return nil, err
	}
	switch {
	case rec.Error != "":
		return nil, fmt.Errorf("google search %q: %s", query, rec.Error)
	case rec.DetectedBot:
		return nil, fmt.Errorf("google search %q (%s, status %d): %w", query, rec.DetectionSrc, rec.StatusCode, ErrChallenged)
	case !rec.OK():
		return nil, fmt.Errorf("google search %q: status %d", query, rec.StatusCode)
	}

	results, err := ParseGoogle(rec.Body)
	if err != nil {
		return nil, fmt.Errorf("google search %q: %w", query, err)
	}
	return Normalize(results, limit), nil
}

// ParseGoogle extracts organic results from a Google results page. When none
// of the known containers yields a result, any anchor wrapping an <h3> is
// taken as a result with an empty snippet. Results are deduplicated by URL
// and capped at MaxResults.
func ParseGoogle(html []byte) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []Result
	seen := make(map[string]bool)

	for _, sel := range organicContainers {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			a := s.Find("a").First()
			h3 := s.Find("h3").First()
			if a.Length() == 0 || h3.Length() == 0 {
				return
			}
			href, _ := a.Attr("href")
			if !strings.HasPrefix(href, "http") || seen[href] {
				return
			}
			seen[href] = true
			results = append(results, Result{
				Title:   joinedText(h3),
				URL:     href,
				Snippet: joinedText(s.Find(snippetSelector).First()),
			})
		})
	}

	if len(results) == 0 {
		doc.Find("a h3").Each(func(_ int, h3 *goquery.Selection) {
			href, _ := h3.Parent().Attr("href")
			if !strings.HasPrefix(href, "http") || seen[href] {
				return
			}
			seen[href] = true
			results = append(results, Result{Title: joinedText(h3), URL: href})
		})
	}

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results, nil
}

// joinedText joins the words of every text node under s with single spaces.
func joinedText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				parts = append(parts, strings.Fields(c.Text())...)
				return
			}
			walk(c)
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}
