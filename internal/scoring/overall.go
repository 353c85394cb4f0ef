package scoring

// Weights of the overall score. They sum to 1.
const (
	WeightRecognition = 0.40
	WeightContext     = 0.20
	WeightSentiment   = 0.20
	WeightCompetitive = 0.20
)

// Overall averages each sub-score across markets and combines the means with
// the fixed weights. The score is computed from the unrounded means; the
// score and the returned breakdown are rounded to one place. No markets
// yields 0 and a zero breakdown.
func Overall(scores MarketScores) (float64, Breakdown) {
	if len(scores) == 0 {
		return 0, Breakdown{}
	}

	var rec, ctx, snt, cmp float64
	for _, e := range scores {
		rec += e.Score.RecognitionPct
		ctx += e.Score.ContextAvg
		snt += e.Score.SentimentPct
		cmp += e.Score.CompetitivePct
	}
	n := float64(len(scores))
	rec, ctx, snt, cmp = rec/n, ctx/n, snt/n, cmp/n

	score := WeightRecognition*rec + WeightContext*ctx + WeightSentiment*snt + WeightCompetitive*cmp
	return round(score, 1), Breakdown{
		RecognitionPct: round(rec, 1),
		ContextAvg:     round(ctx, 1),
		SentimentPct:   round(snt, 1),
		CompetitivePct: round(cmp, 1),
	}
}
