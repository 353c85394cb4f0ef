package scoring

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// round rounds the exact binary value of x half to even. 0.25 is a true tie
// and becomes 0.2; 0.35 is stored as 0.34999... and becomes 0.3.
func round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	// 1074 fractional digits spell out any float64 exactly.
	d, err := decimal.NewFromString(strconv.FormatFloat(x, 'f', 1074, 64))
	if err != nil {
		d = decimal.NewFromFloat(x)
	}
	return d.RoundBank(places).InexactFloat64()
}

func clampPct(x float64) float64 {
	return max(0, min(100, x))
}

// RecognitionPct converts a mean recognition ratio to a percentage.
func RecognitionPct(ratio float64) float64 { return round(clampPct(ratio*100), 1) }

// ContextPct rounds a mean context depth, already on a 0-100 scale.
func ContextPct(mean float64) float64 { return round(clampPct(mean), 1) }

// SentimentPct maps a mean polarity in [-1, 1] onto [0, 100].
func SentimentPct(mean float64) float64 { return round(clampPct((mean+1)/2*100), 1) }

// CompetitivePct converts a competitive share to a percentage.
func CompetitivePct(share float64) float64 { return round(clampPct(share*100), 1) }

// CompetitiveShare is the brand's mentions relative to its most-mentioned
// rival, capped at 1. With no rival mentions the brand dominates by default.
func CompetitiveShare(brandMentions, rivalMax int) float64 {
	if rivalMax == 0 {
		return 1
	}
	return min(1, float64(brandMentions)/float64(rivalMax))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
