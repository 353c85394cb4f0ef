package signals

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FranksOps/lumen/internal/storage"
	"github.com/FranksOps/lumen/pkg/ratelimit"
)

// FAQMinLength is the number of characters a /faq page must exceed to count.
const FAQMinLength = 500

// Config tunes a Checker.
type Config struct {
	// OffsiteInterval is the minimum spacing between platform probes.
	OffsiteInterval time.Duration
	// OffsiteTimeout bounds each platform probe.
	OffsiteTimeout time.Duration
	// Robots, when set, is consulted before fetching the homepage and /faq.
	Robots RobotsPolicy
}

// Checker is the signal checker. Every probe is independently fallible:
// failures read as false and are never returned, except context cancellation.
type Checker struct {
	fetcher Fetcher
	cfg     Config
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewChecker returns a Checker fetching through f.
func NewChecker(f Fetcher, cfg Config, logger *slog.Logger) *Checker {
	if cfg.OffsiteTimeout <= 0 {
		cfg.OffsiteTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		fetcher: f,
		cfg:     cfg,
		limiter: ratelimit.NewLimiter(cfg.OffsiteInterval, 0),
		logger:  logger,
	}
}

// Site fetches website and, when that succeeds, probes its /faq route.
func (c *Checker) Site(ctx context.Context, website string) (SiteSignals, error) {
	var out SiteSignals

	home, err := c.get(ctx, website)
	if err != nil || home == nil {
		return out, err
	}
	out = Inspect(string(home.Body))

	faq, err := c.get(ctx, strings.TrimRight(website, "/")+"/faq")
	if err != nil {
		return out, err
	}
	out.FAQRoute = faq != nil && faq.StatusCode == 200 && utf8.RuneCount(faq.Body) > FAQMinLength

	c.logger.Info("site signals checked", "website", website,
		"organization_schema", out.OrganizationSchema,
		"faq_schema", out.FAQSchema,
		"hreflang", out.Hreflang,
		"location_pages", out.LocationPages,
		"faq_route", out.FAQRoute)
	return out, nil
}

// get fetches target for a site signal. It returns nil when the URL is
// disallowed, the fetch failed or was challenged, or the status is not 2xx.
func (c *Checker) get(ctx context.Context, target string) (*storage.FetchRecord, error) {
	if c.cfg.Robots != nil {
		allowed, err := c.cfg.Robots.Allowed(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("robots.txt check failed", "url", target, "err", err)
			return nil, nil
		}
		if !allowed {
			c.logger.Info("skipping url disallowed by robots.txt", "url", target)
			return nil, nil
		}
	}

	rec, err := c.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	switch {
	case rec.Error != "":
		c.logger.Warn("site fetch failed", "url", target, "err", rec.Error)
		return nil, nil
	case rec.DetectedBot:
		c.logger.Warn("site fetch challenged", "url", target, "source", rec.DetectionSrc)
		return nil, nil
	case !rec.OK():
		c.logger.Warn("site fetch returned error status", "url", target, "status", rec.StatusCode)
		return nil, nil
	}
	return rec, nil
}

// Offsite probes every platform in order for brand. A platform counts as
// present on a 200 response that is not a challenge page.
func (c *Checker) Offsite(ctx context.Context, brand string) (OffsiteSignals, error) {
	out := NewOffsiteSignals()
	for _, p := range Platforms {
		if err := c.limiter.Wait(ctx); err != nil {
			return out, err
		}
		present, err := c.probe(ctx, p.URL(brand))
		if err != nil {
			return out, err
		}
		out[p.Key] = present
		c.logger.Debug("offsite probe", "platform", p.Key, "present", present)
	}
	return out, nil
}

func (c *Checker) probe(ctx context.Context, target string) (bool, error) {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.OffsiteTimeout)
	defer cancel()

	rec, err := c.fetcher.Fetch(pctx, target)
	if err != nil {
		// only the parent's cancellation aborts; a probe timeout reads false
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.logger.Warn("offsite probe timed out", "url", target, "err", err)
		return false, nil
	}
	if rec.Error != "" {
		c.logger.Warn("offsite probe failed", "url", target, "err", rec.Error)
		return false, nil
	}
	return rec.StatusCode == 200 && !rec.DetectedBot, nil
}
