package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// Robots answers robots.txt questions for the hosts an audit touches. Each
// host's file is fetched at most once.
type Robots struct {
	fetcher *Fetcher
	logger  *slog.Logger
	agent   string

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobots returns a Robots that evaluates rules for the given user agent.
// An empty agent matches only the wildcard group.
func NewRobots(fetcher *Fetcher, agent string, logger *slog.Logger) *Robots {
	if logger == nil {
		logger = slog.Default()
	}
	return &Robots{
		fetcher: fetcher,
		logger:  logger,
		agent:   agent,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether targetURL may be fetched. A missing, unreachable,
// or unparsable robots.txt allows everything; only a cancelled context is an
// error.
func (r *Robots) Allowed(ctx context.Context, targetURL string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url %q: %w", targetURL, err)
	}

	data, err := r.load(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return false, err
	}
	if data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.FindGroup(r.agent).Test(path), nil
}

func (r *Robots) load(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[origin]; ok {
		return data, nil
	}

	rec, err := r.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return nil, err
	}

	var data *robotstxt.RobotsData
	switch {
	case rec.Error != "":
		r.logger.Debug("robots.txt unreachable, allowing all", "origin", origin, "err", rec.Error)
	case rec.StatusCode >= 400:
		r.logger.Debug("robots.txt absent, allowing all", "origin", origin, "status", rec.StatusCode)
	default:
		parsed, perr := robotstxt.FromBytes(rec.Body)
		if perr != nil {
			r.logger.Debug("robots.txt unparsable, allowing all", "origin", origin, "err", perr)
		} else {
			data = parsed
		}
	}
	r.cache[origin] = data
	return data, nil
}
