package scoring

import (
	"context"
	"log/slog"

	"github.com/FranksOps/lumen/internal/analyzer"
	"github.com/FranksOps/lumen/internal/metrics"
	"github.com/FranksOps/lumen/internal/query"
	"github.com/FranksOps/lumen/internal/serp"
)

// ResultSource yields the results for one query. *serp.Collector satisfies
// it. The only error expected is the context's.
type ResultSource interface {
	Results(ctx context.Context, query string) ([]serp.Result, error)
}

// Scorer is the market scorer. It runs one query at a time, in order, so the
// competitor tallies' tie-break order follows fetch order.
type Scorer struct {
	source   ResultSource
	analyzer analyzer.Analyzer
	brand    string
	logger   *slog.Logger
}

// NewScorer returns a Scorer measuring brand.
func NewScorer(source ResultSource, an analyzer.Analyzer, brand string, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{source: source, analyzer: an, brand: brand, logger: logger}
}

// Markets scores every market in order using the queries built for it, and
// returns the global top competitors across all markets. A market with no
// queries scores zero throughout.
func (s *Scorer) Markets(ctx context.Context, markets []string, queries []query.Query) (MarketScores, []CompetitorCount, error) {
	byMarket := query.ByMarket(queries)
	var global Tally

	scores := make(MarketScores, 0, len(markets))
	for _, m := range markets {
		score, err := s.Market(ctx, m, byMarket[m], &global)
		if err != nil {
			return nil, nil, err
		}
		scores = append(scores, MarketEntry{Market: m, Score: score})
	}
	return scores, global.Top(MaxCompetitors), nil
}

// Market scores one market's queries, folding competitor mentions into global
// as well as the market's own tally.
func (s *Scorer) Market(ctx context.Context, market string, qs []query.Query, global *Tally) (MarketScore, error) {
	if len(qs) == 0 {
		s.logger.Warn("market has no queries", "market", market)
		return MarketScore{Queries: []QueryMetrics{}, Competitors: []CompetitorCount{}}, nil
	}

	var local Tally
	rows := make([]QueryMetrics, 0, len(qs))
	for _, q := range qs {
		row, err := s.Query(ctx, q.Text, &local, global)
		if err != nil {
			return MarketScore{}, err
		}
		rows = append(rows, row)
	}

	var (
		recognition, depth, sentiment []float64
		mentions                      int
	)
	for _, r := range rows {
		recognition = append(recognition, r.Recognition)
		depth = append(depth, r.ContextDepth)
		sentiment = append(sentiment, r.Sentiment)
		mentions += r.Mentions
	}

	score := MarketScore{
		RecognitionPct: RecognitionPct(mean(recognition)),
		ContextAvg:     ContextPct(mean(depth)),
		SentimentPct:   SentimentPct(mean(sentiment)),
		CompetitivePct: CompetitivePct(CompetitiveShare(mentions, local.Max())),
		Mentions:       mentions,
		Queries:        rows,
		Competitors:    local.Top(MaxCompetitors),
	}

	metrics.SetMarket(s.brand, market, score.RecognitionPct, score.ContextAvg, score.SentimentPct, score.CompetitivePct)
	s.logger.Info("market scored",
		"market", market,
		"queries", len(rows),
		"mentions", mentions,
		"recognition_pct", score.RecognitionPct,
		"competitive_pct", score.CompetitivePct)
	return score, nil
}

// Query measures one query's results. Every result whose text mentions the
// brand counts once toward mentions and contributes its context depth,
// sentiment, and competitor names.
func (s *Scorer) Query(ctx context.Context, text string, local, global *Tally) (QueryMetrics, error) {
	results, err := s.source.Results(ctx, text)
	if err != nil {
		return QueryMetrics{}, err
	}

	var (
		mentions         int
		depths, polarity []float64
	)
	for _, r := range results {
		blob := r.Text()
		if s.analyzer.MentionCount(blob, s.brand) == 0 {
			continue
		}
		mentions++
		depths = append(depths, float64(s.analyzer.ContextDepth(blob, s.brand)))
		polarity = append(polarity, s.analyzer.Sentiment(blob))
		for _, name := range s.analyzer.CompetitorNames(blob, s.brand) {
			local.Add(name)
			global.Add(name)
		}
	}

	var recognition float64
	if len(results) > 0 {
		recognition = float64(mentions) / float64(len(results))
	}
	return QueryMetrics{
		Query:        text,
		Recognition:  round(recognition, 3),
		ContextDepth: round(mean(depths), 2),
		Sentiment:    round(mean(polarity), 3),
		Mentions:     mentions,
	}, nil
}
