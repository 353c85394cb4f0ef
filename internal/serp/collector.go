package serp

import (
	"context"
	"log/slog"

	"github.com/FranksOps/lumen/internal/metrics"
	"github.com/FranksOps/lumen/pkg/ratelimit"
)

// Collector is the search result adapter the scorer uses. It paces calls to
// the provider and turns provider failures into empty result sets.
type Collector struct {
	provider Provider
	limiter  *ratelimit.Limiter
	limit    int
	logger   *slog.Logger
}

// NewCollector wraps p. No two provider calls start closer together than the
// limiter's interval; a nil limiter does not pace. limit <= 0 or above
// MaxResults means MaxResults.
func NewCollector(p Provider, limiter *ratelimit.Limiter, limit int, logger *slog.Logger) *Collector {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{provider: p, limiter: limiter, limit: limit, logger: logger}
}

// Results returns up to the configured number of deduplicated results for
// query. Zero results is a valid answer. The only error is the context's.
func (c *Collector) Results(ctx context.Context, query string) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	results, err := c.provider.Search(ctx, query, c.limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("search failed, scoring query with no results",
			"provider", c.provider.Name(), "query", query, "err", err)
		results = nil
	}

	results = Normalize(results, c.limit)
	metrics.SearchResults.WithLabelValues(c.provider.Name()).Observe(float64(len(results)))
	c.logger.Debug("search results", "provider", c.provider.Name(), "query", query, "count", len(results))
	return results, nil
}
