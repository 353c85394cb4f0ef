// Package recommend turns scores and signals into prioritized remediation
// actions and groups them into a 90-day plan.
package recommend

import (
	"github.com/FranksOps/lumen/internal/scoring"
	"github.com/FranksOps/lumen/internal/signals"
)

const (
	// RecognitionFloor is the recognition percentage below which a market
	// gets a content push.
	RecognitionFloor = 40.0
	// CompetitiveFloor is the competitive percentage below which a market
	// gets comparison pages.
	CompetitiveFloor = 60.0
	// SentimentFloor is the sentiment percentage below which a market gets a
	// reputation drive.
	SentimentFloor = 60.0
	// PlanBucketCap is the maximum number of actions per plan bucket.
	PlanBucketCap = 10
)

// Priority ranks a recommendation.
type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case High, Medium, Low:
		return true
	}
	return false
}

// Recommendation is one remediation action.
type Recommendation struct {
	Type     string   `json:"type" yaml:"type"`
	Priority Priority `json:"priority" yaml:"priority"`
	Action   string   `json:"action" yaml:"action"`
}

// Input is everything the rules look at.
type Input struct {
	Brand          string
	Category       string
	Site           signals.SiteSignals
	Offsite        signals.OffsiteSignals
	Markets        scoring.MarketScores
	TopCompetitors []scoring.CompetitorCount
}

// Generate evaluates the global rules in order, then every market rule for
// each market in configuration order. The result is never nil.
func Generate(in Input) []Recommendation {
	out := []Recommendation{}
	for _, r := range GlobalRules {
		if r.When(in) {
			out = append(out, r.recommendation(r.Action(in)))
		}
	}
	for _, m := range in.Markets {
		for _, r := range MarketRules {
			if r.When(m.Score) {
				out = append(out, r.recommendation(r.Action(in, m.Market)))
			}
		}
	}
	return out
}

// Plan groups recommendations by priority.
type Plan struct {
	High   []Recommendation `json:"High" yaml:"High"`
	Medium []Recommendation `json:"Medium" yaml:"Medium"`
	Low    []Recommendation `json:"Low" yaml:"Low"`
}

// BuildPlan buckets recs by priority keeping generation order, each bucket
// capped at PlanBucketCap. Empty buckets are empty slices, not nil.
func BuildPlan(recs []Recommendation) Plan {
	p := Plan{High: []Recommendation{}, Medium: []Recommendation{}, Low: []Recommendation{}}
	for _, r := range recs {
		var bucket *[]Recommendation
		switch r.Priority {
		case High:
			bucket = &p.High
		case Medium:
			bucket = &p.Medium
		case Low:
			bucket = &p.Low
		default:
			continue
		}
		if len(*bucket) < PlanBucketCap {
			*bucket = append(*bucket, r)
		}
	}
	return p
}
