// Package audit runs one brand visibility audit end to end.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FranksOps/lumen/internal/analyzer"
	"github.com/FranksOps/lumen/internal/config"
	"github.com/FranksOps/lumen/internal/metrics"
	"github.com/FranksOps/lumen/internal/query"
	"github.com/FranksOps/lumen/internal/recommend"
	"github.com/FranksOps/lumen/internal/report"
	"github.com/FranksOps/lumen/internal/scoring"
	"github.com/FranksOps/lumen/internal/signals"
	"github.com/FranksOps/lumen/internal/storage"
)

// SignalSource checks the site and off-site signals. *signals.Checker
// satisfies it.
type SignalSource interface {
	Site(ctx context.Context, website string) (signals.SiteSignals, error)
	Offsite(ctx context.Context, brand string) (signals.OffsiteSignals, error)
}

// Pipeline orchestrates the stages of an audit: query building, market
// scoring, aggregation, signal checks, recommendations, and assembly.
type Pipeline struct {
	Audit    config.Audit
	Search   scoring.ResultSource
	Analyzer analyzer.Analyzer
	Signals  SignalSource
	// Records, when set, supplies the run's fetch records for the summary in
	// the text and HTML reports.
	Records func() []*storage.FetchRecord
	Logger  *slog.Logger
	Now     func() time.Time
}

// Run executes the pipeline and returns the assembled report. Fetch failures
// degrade to zero or false values; the only errors are a missing component
// and the context's.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	if p.Search == nil {
		return nil, errors.New("audit: search source is nil")
	}
	if p.Analyzer == nil {
		return nil, errors.New("audit: analyzer is nil")
	}
	if p.Signals == nil {
		return nil, errors.New("audit: signal source is nil")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	a := p.Audit
	start := now()

	qs := query.Build(a.Brand, a.Category, a.Markets, a.Queries)
	logger.Info("audit started", "brand", a.Brand, "markets", len(a.Markets), "queries", len(qs))

	scorer := scoring.NewScorer(p.Search, p.Analyzer, a.Brand, logger)
	scores, top, err := scorer.Markets(ctx, a.Markets, qs)
	if err != nil {
		return nil, err
	}
	overall, breakdown := scoring.Overall(scores)

	site, err := p.Signals.Site(ctx, a.Website)
	if err != nil {
		return nil, err
	}
	offsite, err := p.Signals.Offsite(ctx, a.Brand)
	if err != nil {
		return nil, err
	}

	recs := recommend.Generate(recommend.Input{
		Brand:          a.Brand,
		Category:       a.Category,
		Site:           site,
		Offsite:        offsite,
		Markets:        scores,
		TopCompetitors: top,
	})

	var fetches *report.FetchSummary
	if p.Records != nil {
		s := report.Summarize(p.Records())
		fetches = &s
	}

	rep := report.Assemble(report.Input{
		Brand:           a.Brand,
		Category:        a.Category,
		Website:         a.Website,
		Score:           overall,
		Breakdown:       breakdown,
		Markets:         scores,
		TopCompetitors:  top,
		Site:            site,
		Offsite:         offsite,
		Recommendations: recs,
		Plan:            recommend.BuildPlan(recs),
		Fetches:         fetches,
		Now:             now(),
	})

	metrics.OverallScore.WithLabelValues(a.Brand).Set(overall)
	logger.Info("audit finished", "brand", a.Brand, "score", overall,
		"recommendations", len(recs), "duration", now().Sub(start))
	return rep, nil
}
