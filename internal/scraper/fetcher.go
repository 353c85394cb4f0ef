// Package scraper performs every outbound GET of an audit: SERP pages,
// the audited homepage, and third-party profile searches.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/lumen/internal/bypass"
	"github.com/FranksOps/lumen/internal/fingerprint"
	"github.com/FranksOps/lumen/internal/metrics"
	"github.com/FranksOps/lumen/internal/storage"
	"github.com/FranksOps/lumen/pkg/httpclient"
	"github.com/FranksOps/lumen/pkg/proxy"
	"github.com/FranksOps/lumen/pkg/useragent"
	"github.com/google/uuid"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// maxBody caps how much of a response is kept.
const maxBody = 8 << 20

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	// Cache, when set, replays and/or records responses according to CacheMode.
	Cache     storage.Backend
	CacheMode storage.Mode
	Logger    *slog.Logger
}

// Fetcher performs single URL fetches. Failures are recorded on the returned
// storage.FetchRecord rather than returned as errors.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher builds a Fetcher. A single client is held across requests so
// connections and cookies are reused for the life of the Fetcher.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.CacheMode == "" {
		cfg.CacheMode = storage.ModeReadWrite
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The proxy is chosen per request and carried in the request context, so
	// one transport serves every proxy.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{Proxy: proxyFunc})
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client, logger: logger}, nil
}

// UserAgent is the agent string the next request would send.
func (f *Fetcher) UserAgent() string {
	return f.config.UAPool.Next()
}

// Fetch GETs targetURL. The only error returned is the context's, when it is
// canceled or expires; every other failure lands in the record's Error field.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*storage.FetchRecord, error) {
	host := hostOf(targetURL)

	if f.config.Cache != nil && f.config.CacheMode.Reads() {
		rec, err := storage.Lookup(ctx, f.config.Cache, targetURL)
		switch {
		case err == nil:
			rec.FromCache = true
			bypass.Analyze(rec, bypass.DefaultDetectors())
			metrics.RecordFetch(host, rec)
			f.logger.Debug("fetch served from cache", "url", targetURL, "status", rec.StatusCode)
			return rec, nil
		case !errors.Is(err, storage.ErrNotCached):
			f.logger.Warn("fetch cache lookup failed", "url", targetURL, "err", err)
		}
	}

	rec := f.do(ctx, targetURL)
	metrics.RecordFetch(host, rec)

	if err := ctx.Err(); err != nil {
		return rec, err
	}

	if f.config.Cache != nil && f.config.CacheMode.Writes() {
		if err := f.config.Cache.Save(ctx, rec); err != nil {
			f.logger.Warn("fetch cache save failed", "url", targetURL, "err", err)
		}
	}

	if rec.Error != "" {
		f.logger.Debug("fetch failed", "url", targetURL, "err", rec.Error, "duration", rec.Duration)
	} else if rec.DetectedBot {
		f.logger.Warn("fetch challenged", "url", targetURL, "status", rec.StatusCode, "source", rec.DetectionSrc)
	}
	return rec, nil
}

func (f *Fetcher) do(ctx context.Context, targetURL string) *storage.FetchRecord {
	start := time.Now()
	rec := &storage.FetchRecord{
		ID:        uuid.NewString(),
		URL:       targetURL,
		Method:    http.MethodGet,
		CreatedAt: start.UTC(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		rec.Error = fmt.Sprintf("build request: %v", err)
		return rec
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	req.Header.Set("User-Agent", f.config.UAPool.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.Report(activeProxy, false)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Redacted()).Inc()
		}
		rec.Error = fmt.Sprintf("request failed: %v", err)
		rec.Duration = time.Since(start)
		return rec
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.Report(activeProxy, true)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		rec.Error = fmt.Sprintf("read body: %v", err)
	}

	rec.StatusCode = resp.StatusCode
	rec.Headers = resp.Header
	rec.Body = body
	rec.Duration = time.Since(start)
	// Redirect walls (Google's /sorry/) are recognized by the final URL.
	if resp.Request != nil && resp.Request.URL != nil {
		rec.URL = resp.Request.URL.String()
	}

	bypass.Analyze(rec, bypass.DefaultDetectors())
	// keep the cache keyed by the requested URL
	rec.URL = targetURL
	return rec
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Hostname()
}
