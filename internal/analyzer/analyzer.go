// Package analyzer scores text for brand mentions, descriptive context around
// them, sentiment, and rival names.
package analyzer

// Analyzer is the text analysis capability the market scorer consumes. All
// methods are pure given their arguments.
type Analyzer interface {
	// MentionCount counts organization, person, product and work-of-art
	// entities containing target, case-insensitively. A literal occurrence
	// the recognizer missed counts as one.
	MentionCount(text, target string) int
	// ContextDepth counts nouns and main verbs around the first mention of target,
	// clamped to [0, 100]. It is 0 when target does not occur.
	ContextDepth(text, target string) int
	// Sentiment is the compound polarity of text in [-1, 1].
	Sentiment(text string) float64
	// CompetitorNames lists distinct organization and product entities that
	// do not contain target, in first-seen order.
	CompetitorNames(text, target string) []string
}

// MaxContextDepth caps ContextDepth.
const MaxContextDepth = 100
