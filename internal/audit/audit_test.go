package audit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/lumen/internal/config"
	"github.com/FranksOps/lumen/internal/recommend"
	"github.com/FranksOps/lumen/internal/report"
	"github.com/FranksOps/lumen/internal/scoring"
	"github.com/FranksOps/lumen/internal/serp"
	"github.com/FranksOps/lumen/internal/signals"
	"github.com/FranksOps/lumen/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type substringAnalyzer struct{}

func (substringAnalyzer) MentionCount(text, target string) int {
	return strings.Count(strings.ToLower(text), strings.ToLower(target))
}

func (substringAnalyzer) ContextDepth(text, target string) int {
	if strings.Contains(strings.ToLower(text), strings.ToLower(target)) {
		return 50
	}
	return 0
}

func (substringAnalyzer) Sentiment(string) float64 { return 0 }

func (substringAnalyzer) CompetitorNames(string, string) []string { return nil }

type mapSource map[string][]serp.Result

func (m mapSource) Results(ctx context.Context, q string) ([]serp.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m[q], nil
}

type fixedSignals struct {
	site    signals.SiteSignals
	offsite signals.OffsiteSignals
	calls   []string
}

func (f *fixedSignals) Site(ctx context.Context, website string) (signals.SiteSignals, error) {
	f.calls = append(f.calls, "site:"+website)
	return f.site, ctx.Err()
}

func (f *fixedSignals) Offsite(ctx context.Context, brand string) (signals.OffsiteSignals, error) {
	f.calls = append(f.calls, "offsite:"+brand)
	return f.offsite, ctx.Err()
}

func testPipeline(sig *fixedSignals) *Pipeline {
	return &Pipeline{
		Audit: config.Audit{
			Brand:    "Acme",
			Category: "CRM",
			Website:  "https://acme.example",
			Markets:  []string{"USA", "UK"},
			Queries:  []string{"what is {brand} in {market}"},
		},
		Search: mapSource{
			"what is Acme in USA": {
				{Title: "Acme CRM", URL: "https://acme.example/", Snippet: "Acme is a CRM"},
				{Title: "Other", URL: "https://other.example/", Snippet: "nothing here"},
			},
		},
		Analyzer: substringAnalyzer{},
		Signals:  sig,
		Now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestPipeline_Run(t *testing.T) {
	sig := &fixedSignals{offsite: signals.NewOffsiteSignals()}
	rep, err := testPipeline(sig).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026-01-02T03:04:05Z", rep.GeneratedAt)
	assert.Equal(t, []string{"site:https://acme.example", "offsite:Acme"}, sig.calls)

	usa, ok := rep.ScoresByMarket.Get("USA")
	require.True(t, ok)
	assert.Equal(t, 50.0, usa.RecognitionPct)
	assert.Equal(t, 50.0, usa.ContextAvg)
	assert.Equal(t, 50.0, usa.SentimentPct)
	assert.Equal(t, 100.0, usa.CompetitivePct)
	assert.Equal(t, 1, usa.Mentions)

	uk, ok := rep.ScoresByMarket.Get("UK")
	require.True(t, ok)
	assert.Equal(t, 0.0, uk.RecognitionPct)
	assert.Equal(t, 100.0, uk.CompetitivePct)

	assert.Equal(t, scoring.Breakdown{RecognitionPct: 25, ContextAvg: 25, SentimentPct: 50, CompetitivePct: 100}, rep.BreakdownOverall)
	assert.Equal(t, 45.0, rep.ScoreOverall)

	require.Len(t, rep.Recommendations, 11)
	assert.Equal(t, "UK: Publish 5 problem‑led pages and 15 short Q&A snippets targeting 'CRM' queries in UK. Add a local case study.",
		rep.Recommendations[9].Action)
	assert.Len(t, rep.Next90DaysPlan.High, 5)
	assert.Len(t, rep.Next90DaysPlan.Medium, 6)
	assert.Empty(t, rep.Next90DaysPlan.Low)
	assert.Nil(t, rep.Fetches)
}

func TestPipeline_HealthySite(t *testing.T) {
	off := signals.NewOffsiteSignals()
	for k := range off {
		off[k] = true
	}
	sig := &fixedSignals{
		site:    signals.SiteSignals{OrganizationSchema: true, FAQSchema: true, Hreflang: true, LocationPages: true, FAQRoute: true},
		offsite: off,
	}
	p := testPipeline(sig)
	p.Audit.Markets = []string{"USA"}

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Recommendations, 1)
	assert.Equal(t, "reputation", rep.Recommendations[0].Type)
	assert.Equal(t, recommend.Medium, rep.Recommendations[0].Priority)
}

func TestPipeline_Fetches(t *testing.T) {
	p := testPipeline(&fixedSignals{offsite: signals.NewOffsiteSignals()})
	p.Records = func() []*storage.FetchRecord {
		return []*storage.FetchRecord{{StatusCode: 200}, {Error: "boom"}}
	}

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep.Fetches)
	assert.Equal(t, 2, rep.Fetches.TotalRequests)
	assert.Equal(t, 1, rep.Fetches.TotalErrors)
}

func TestPipeline_Canceled(t *testing.T) {
	sig := &fixedSignals{offsite: signals.NewOffsiteSignals()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPipeline(sig).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sig.calls, "signals are not checked after an aborted scoring stage")
}

func TestPipeline_MissingComponents(t *testing.T) {
	_, err := (&Pipeline{}).Run(context.Background())
	assert.Error(t, err)
}

func TestOpenCache(t *testing.T) {
	b, err := OpenCache(context.Background(), config.Cache{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = OpenCache(context.Background(), config.Cache{Driver: "jsonl", DSN: filepath.Join(t.TempDir(), "cache.jsonl")})
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.NoError(t, b.Close())

	b, err = OpenCache(context.Background(), config.Cache{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "cache.db")})
	require.NoError(t, err)
	assert.NoError(t, b.Close())

	_, err = OpenCache(context.Background(), config.Cache{Driver: "redis"})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(config.Search{Provider: "google"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	p, err = NewProvider(config.Search{Provider: "searxng", SearXNGURL: "http://localhost:8888"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "searxng", p.Name())

	path := filepath.Join(t.TempDir(), "serp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("q:\n  - title: T\n    url: https://t.example\n"), 0o644))
	p, err = NewProvider(config.Search{Provider: "fixture", FixturePath: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixture", p.Name())

	_, err = NewProvider(config.Search{Provider: "bing"}, nil)
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cfg := &config.Config{
		Audit:   config.Audit{Brand: "Acme", Category: "CRM", Website: "https://acme.example", Markets: []string{"USA"}, Queries: []string{"{brand}"}},
		Search:  config.Search{Provider: "google", MaxResults: 10},
		Fetch:   config.Fetch{Timeout: time.Second, Fingerprint: "go", Proxies: []string{"127.0.0.1:3128"}},
		Signals: config.Signals{OffsiteTimeout: time.Second, RespectRobots: true},
		Cache:   config.Cache{Driver: "jsonl", DSN: filepath.Join(t.TempDir(), "c.jsonl"), Mode: "write"},
	}

	p, closeFn, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, p.Search)
	assert.NotNil(t, p.Analyzer)
	assert.NotNil(t, p.Signals)
	assert.NotNil(t, p.Records)
	assert.Equal(t, "Acme", p.Audit.Brand)

	cfg.Fetch.Fingerprint = "netscape"
	_, _, err = Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Output:  config.Output{Path: filepath.Join(dir, "out", "report.json"), Formats: []string{"json", "html"}},
		Metrics: config.Metrics{Textfile: filepath.Join(dir, "lumen.prom")},
	}
	rep := report.Assemble(report.Input{Brand: "Acme"})

	written, err := Publish(rep, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.Output.Path, filepath.Join(dir, "out", "report.html")}, written)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `lumen_audit_last_success_timestamp_seconds{brand="Acme"}`)
}
