package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/lumen/internal/analyzer"
	"github.com/FranksOps/lumen/internal/config"
	"github.com/FranksOps/lumen/internal/fingerprint"
	"github.com/FranksOps/lumen/internal/metrics"
	"github.com/FranksOps/lumen/internal/report"
	"github.com/FranksOps/lumen/internal/scraper"
	"github.com/FranksOps/lumen/internal/serp"
	"github.com/FranksOps/lumen/internal/signals"
	"github.com/FranksOps/lumen/internal/storage"
	"github.com/FranksOps/lumen/internal/storage/jsonl"
	"github.com/FranksOps/lumen/internal/storage/postgres"
	"github.com/FranksOps/lumen/internal/storage/sqlite"
	"github.com/FranksOps/lumen/pkg/proxy"
	"github.com/FranksOps/lumen/pkg/ratelimit"
	"github.com/FranksOps/lumen/pkg/useragent"
)

// RobotsAgent is the product token matched against robots.txt groups.
const RobotsAgent = "lumen"

// OpenCache opens the configured fetch cache. Driver "none" yields nil.
func OpenCache(ctx context.Context, cfg config.Cache) (storage.Backend, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return sqlite.New(cfg.DSN)
	case "postgres":
		return postgres.New(ctx, cfg.DSN)
	case "jsonl":
		return jsonl.New(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// NewFetcher builds the shared fetcher from the fetch and cache settings.
// cache may be nil.
func NewFetcher(cfg *config.Config, cache storage.Backend, logger *slog.Logger) (*scraper.Fetcher, error) {
	profile, err := fingerprint.ParseProfile(cfg.Fetch.Fingerprint)
	if err != nil {
		return nil, err
	}
	mode, err := storage.ParseMode(cfg.Cache.Mode)
	if err != nil {
		return nil, err
	}

	proxies := proxy.NewPool(proxy.Config{})
	if err := proxies.Add(cfg.Fetch.Proxies...); err != nil {
		return nil, err
	}
	if cfg.Fetch.ProxyFile != "" {
		if err := proxies.LoadFile(cfg.Fetch.ProxyFile); err != nil {
			return nil, err
		}
	}

	return scraper.NewFetcher(scraper.FetchConfig{
		Timeout:      cfg.Fetch.Timeout,
		MaxRedirects: cfg.Fetch.MaxRedirects,
		UseCookieJar: cfg.Fetch.CookieJar,
		ProxyPool:    proxies,
		UAPool:       useragent.NewPool(cfg.Fetch.UserAgents),
		Fingerprint:  profile,
		Cache:        cache,
		CacheMode:    mode,
		Logger:       logger,
	})
}

// NewProvider returns the configured search provider fetching through f.
func NewProvider(cfg config.Search, f serp.Fetcher) (serp.Provider, error) {
	switch cfg.Provider {
	case "", "google":
		return serp.NewGoogleScrape(f, cfg.GoogleBase), nil
	case "searxng":
		return serp.NewSearXNG(f, cfg.SearXNGURL)
	case "fixture":
		return serp.LoadFixture(cfg.FixturePath)
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// Build wires a Pipeline from cfg. The returned close function releases the
// fetch cache and must be called once the run is over.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	cache, err := OpenCache(ctx, cfg.Cache)
	if err != nil {
		return nil, noop, fmt.Errorf("open fetch cache: %w", err)
	}
	closeCache := noop
	if cache != nil {
		closeCache = cache.Close
	}

	fetcher, err := NewFetcher(cfg, cache, logger)
	if err != nil {
		closeCache()
		return nil, noop, fmt.Errorf("setup fetcher: %w", err)
	}
	recorder := scraper.NewRecorder(fetcher)

	provider, err := NewProvider(cfg.Search, recorder)
	if err != nil {
		closeCache()
		return nil, noop, fmt.Errorf("setup search provider: %w", err)
	}
	collector := serp.NewCollector(provider,
		ratelimit.NewLimiter(cfg.Search.Interval, cfg.Search.Jitter),
		cfg.Search.MaxResults, logger)

	sigCfg := signals.Config{
		OffsiteInterval: cfg.Signals.OffsiteInterval,
		OffsiteTimeout:  cfg.Signals.OffsiteTimeout,
	}
	if cfg.Signals.RespectRobots {
		sigCfg.Robots = scraper.NewRobots(fetcher, RobotsAgent, logger)
	}

	p := &Pipeline{
		Audit:    cfg.Audit,
		Search:   collector,
		Analyzer: analyzer.NewNLP(analyzer.DefaultModel(), logger),
		Signals:  signals.NewChecker(recorder, sigCfg, logger),
		Records:  recorder.Records,
		Logger:   logger,
	}
	return p, closeCache, nil
}

// Publish writes the report in every configured format, then marks the run
// successful in metrics and writes the metrics textfile when configured.
func Publish(rep *report.Report, cfg *config.Config) ([]string, error) {
	formats, err := report.ParseFormats(cfg.Output.Formats)
	if err != nil {
		return nil, err
	}
	written, err := report.WriteFiles(cfg.Output.Path, rep, formats...)
	if err != nil {
		return written, err
	}

	metrics.AuditLastSuccess.WithLabelValues(rep.Brand).SetToCurrentTime()
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return written, err
		}
	}
	return written, nil
}
