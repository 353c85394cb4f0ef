package analyzer

import (
	"log/slog"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Entity labels produced by NLP.
const (
	LabelPerson       = "PERSON"
	LabelLocation     = "GPE"
	LabelOrganization = "ORG"
	LabelProduct      = "PRODUCT"
	LabelWorkOfArt    = "WORK_OF_ART"
)

var _ Analyzer = (*NLP)(nil)

// Entity is a named span of text.
type Entity struct {
	Text  string
	Label string
}

// NLP implements Analyzer with prose for tokenization, part-of-speech tags and
// person/place recognition, and VADER for sentiment. Organizations and
// products, which prose does not label, are taken from runs of proper nouns.
type NLP struct {
	model  *Model
	logger *slog.Logger
}

// NewNLP returns an Analyzer backed by model. A nil model uses DefaultModel.
func NewNLP(model *Model, logger *slog.Logger) *NLP {
	if model == nil {
		model = DefaultModel()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NLP{model: model, logger: logger}
}

func (n *NLP) MentionCount(text, target string) int {
	count := 0
	for _, e := range n.Entities(text) {
		switch e.Label {
		case LabelOrganization, LabelPerson, LabelProduct, LabelWorkOfArt:
			if containsFold(e.Text, target) {
				count++
			}
		}
	}
	if count == 0 && containsFold(text, target) {
		return 1
	}
	return count
}

func (n *NLP) ContextDepth(text, target string) int {
	window := Window(text, target, WindowRadius)
	if window == "" {
		return 0
	}

	return min(contentWords(n.tokens(window)), MaxContextDepth)
}

// contentWords counts nouns, proper nouns and main verbs. Forms of "be" and
// auxiliary "have"/"do" ahead of another verb are not content.
func contentWords(tokens []prose.Token) int {
	count := 0
	for i, t := range tokens {
		switch {
		case strings.HasPrefix(t.Tag, "NN"):
			count++
		case strings.HasPrefix(t.Tag, "VB") && !auxiliary(tokens, i):
			count++
		}
	}
	return count
}

var (
	beForms     = set("be", "am", "is", "are", "was", "were", "been", "being", "'s", "'re", "'m")
	helperForms = set("have", "has", "had", "having", "'ve", "'d", "do", "does", "did")
)

func auxiliary(tokens []prose.Token, i int) bool {
	word := strings.ToLower(tokens[i].Text)
	if beForms[word] {
		return true
	}
	if !helperForms[word] {
		return false
	}
	// "has grown", "does not support"
	for _, next := range tokens[i+1:] {
		switch {
		case next.Tag == "RB" || strings.ToLower(next.Text) == "not" || next.Text == "n't":
			continue
		case strings.HasPrefix(next.Tag, "VB"):
			return true
		}
		return false
	}
	return false
}

func (n *NLP) Sentiment(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	c := n.model.sentiment.PolarityScores(text).Compound
	return max(-1, min(1, c))
}

func (n *NLP) CompetitorNames(text, target string) []string {
	var names []string
	for _, e := range n.Entities(text) {
		if e.Label != LabelOrganization && e.Label != LabelProduct {
			continue
		}
		if containsFold(e.Text, target) {
			continue
		}
		names = append(names, e.Text)
	}
	return distinct(names)
}

// Entities lists prose's own entities followed by the proper-noun runs it
// did not label, each group in text order. A run followed by a
// number ("Galaxy S24") is a product, any other run an organization.
//
// prose's recognizer was trained on news text and tags most brand names as
// places or people. Single-word people and places outside knownPlaces are
// therefore reported as organizations.
func (n *NLP) Entities(text string) []Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := n.model.document(text, prose.WithSegmentation(false))
	if err != nil {
		n.logger.Debug("entity extraction failed", "err", err)
		return nil
	}

	var out []Entity
	known := make(map[string]bool)
	for _, e := range doc.Entities() {
		t := strings.TrimSpace(e.Text)
		if t == "" {
			continue
		}
		known[t] = true
		out = append(out, Entity{Text: t, Label: relabel(t, e.Label)})
	}

	for _, e := range properNounRuns(doc.Tokens()) {
		if known[e.Text] {
			continue
		}
		if knownPlaces[strings.ToLower(e.Text)] {
			e.Label = LabelLocation
		}
		out = append(out, e)
	}
	return out
}

func relabel(text, label string) string {
	switch label {
	case LabelLocation:
		if knownPlaces[strings.ToLower(text)] {
			return label
		}
		return LabelOrganization
	case LabelPerson:
		if strings.Contains(text, " ") {
			return label
		}
		return LabelOrganization
	}
	return label
}

// knownPlaces keeps common market and city names out of competitor lists.
var knownPlaces = set(
	"us", "usa", "u.s.", "u.s.a.", "america", "united states", "uk", "u.k.", "britain",
	"great britain", "united kingdom", "england", "scotland", "wales", "ireland",
	"canada", "mexico", "brazil", "argentina", "germany", "france", "spain", "italy",
	"portugal", "netherlands", "belgium", "switzerland", "austria", "sweden", "norway",
	"denmark", "finland", "poland", "europe", "eu", "emea", "apac", "latam", "asia",
	"africa", "india", "china", "japan", "korea", "singapore", "australia",
	"new zealand", "uae", "dubai", "israel", "turkey", "south africa", "nigeria",
	"london", "paris", "berlin", "madrid", "amsterdam", "new york", "san francisco",
	"los angeles", "chicago", "boston", "seattle", "austin", "toronto", "sydney",
	"tokyo", "bangalore", "mumbai",
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func properNounRuns(tokens []prose.Token) []Entity {
	var (
		out []Entity
		run []string
	)
	flush := func(label string) {
		if len(run) > 0 {
			out = append(out, Entity{Text: strings.Join(run, " "), Label: label})
			run = run[:0]
		}
	}
	for _, t := range tokens {
		switch {
		case t.Tag == "NNP" || t.Tag == "NNPS":
			run = append(run, t.Text)
		case t.Tag == "CD" && len(run) > 0:
			run = append(run, t.Text)
			flush(LabelProduct)
		default:
			flush(LabelOrganization)
		}
	}
	flush(LabelOrganization)
	return out
}

func (n *NLP) tokens(text string) []prose.Token {
	doc, err := n.model.document(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		n.logger.Debug("tokenization failed", "err", err)
		return nil
	}
	return doc.Tokens()
}
