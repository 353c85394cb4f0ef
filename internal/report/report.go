// Package report assembles the audit artifact and renders it.
package report

import (
	"time"

	"github.com/FranksOps/lumen/internal/recommend"
	"github.com/FranksOps/lumen/internal/scoring"
	"github.com/FranksOps/lumen/internal/signals"
)

const (
	Version     = "1.0.0"
	SourcesNote = "SERP parsed from public Google HTML. Keep volume low. Respect robots.txt if you expand crawling."
	// TimeLayout is the generated_at format, always in UTC.
	TimeLayout = "2006-01-02T15:04:05Z"
)

// Report is the single artifact of an audit run. Field order is the key
// order of the JSON output.
type Report struct {
	Brand            string                     `json:"brand" yaml:"brand"`
	Category         string                     `json:"category" yaml:"category"`
	Website          string                     `json:"website" yaml:"website"`
	GeneratedAt      string                     `json:"generated_at" yaml:"generated_at"`
	ScoreOverall     float64                    `json:"score_overall" yaml:"score_overall"`
	BreakdownOverall scoring.Breakdown          `json:"breakdown_overall" yaml:"breakdown_overall"`
	ScoresByMarket   scoring.MarketScores       `json:"scores_by_market" yaml:"scores_by_market"`
	TopCompetitors   []scoring.CompetitorCount  `json:"top_competitors" yaml:"top_competitors"`
	SiteSignals      signals.SiteSignals        `json:"site_signals" yaml:"site_signals"`
	OffsiteSignals   signals.OffsiteSignals     `json:"offsite_signals" yaml:"offsite_signals"`
	Recommendations  []recommend.Recommendation `json:"recommendations" yaml:"recommendations"`
	Next90DaysPlan   recommend.Plan             `json:"next_90_days_plan" yaml:"next_90_days_plan"`
	SourcesNote      string                     `json:"sources_note" yaml:"sources_note"`
	Version          string                     `json:"version" yaml:"version"`

	// Fetches summarizes the run's HTTP activity for the text and HTML
	// renderings. It is not part of the artifact.
	Fetches *FetchSummary `json:"-" yaml:"-"`
}

// Input carries the parts a report is assembled from.
type Input struct {
	Brand           string
	Category        string
	Website         string
	Score           float64
	Breakdown       scoring.Breakdown
	Markets         scoring.MarketScores
	TopCompetitors  []scoring.CompetitorCount
	Site            signals.SiteSignals
	Offsite         signals.OffsiteSignals
	Recommendations []recommend.Recommendation
	Plan            recommend.Plan
	Fetches         *FetchSummary
	// Now stamps generated_at; zero means time.Now.
	Now time.Time
}

// Assemble builds the report. Missing collections are replaced with empty
// ones so every key serializes as [] or {} and never as null.
func Assemble(in Input) *Report {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := &Report{
		Brand:            in.Brand,
		Category:         in.Category,
		Website:          in.Website,
		GeneratedAt:      now.UTC().Format(TimeLayout),
		ScoreOverall:     in.Score,
		BreakdownOverall: in.Breakdown,
		ScoresByMarket:   in.Markets,
		TopCompetitors:   in.TopCompetitors,
		SiteSignals:      in.Site,
		OffsiteSignals:   signals.NewOffsiteSignals(),
		Recommendations:  in.Recommendations,
		Next90DaysPlan:   in.Plan,
		SourcesNote:      SourcesNote,
		Version:          Version,
		Fetches:          in.Fetches,
	}
	for k, v := range in.Offsite {
		r.OffsiteSignals[k] = v
	}

	if r.ScoresByMarket == nil {
		r.ScoresByMarket = scoring.MarketScores{}
	}
	for i := range r.ScoresByMarket {
		s := &r.ScoresByMarket[i].Score
		if s.Queries == nil {
			s.Queries = []scoring.QueryMetrics{}
		}
		if s.Competitors == nil {
			s.Competitors = []scoring.CompetitorCount{}
		}
	}
	if r.TopCompetitors == nil {
		r.TopCompetitors = []scoring.CompetitorCount{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []recommend.Recommendation{}
	}
	if r.Next90DaysPlan.High == nil {
		r.Next90DaysPlan.High = []recommend.Recommendation{}
	}
	if r.Next90DaysPlan.Medium == nil {
		r.Next90DaysPlan.Medium = []recommend.Recommendation{}
	}
	if r.Next90DaysPlan.Low == nil {
		r.Next90DaysPlan.Low = []recommend.Recommendation{}
	}
	return r
}

// Band labels an overall score the way the dashboard headline does.
func Band(score float64) string {
	switch {
	case score >= 80:
		return "Strong"
	case score >= 60:
		return "Solid foundation"
	default:
		return "Needs significant work"
	}
}
