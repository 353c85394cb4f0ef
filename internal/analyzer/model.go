package analyzer

import (
	"sync"

	"github.com/jdkato/prose/v2"
	"github.com/jonreiter/govader"
)

// Model holds the loaded language resources. It is immutable once built and
// safe for concurrent use.
type Model struct {
	prose     *prose.Model
	sentiment *govader.SentimentIntensityAnalyzer
}

// NewModel loads the tagger, the entity recognizer and the sentiment lexicon.
// Loading is slow; build one Model per process and share it.
func NewModel() *Model {
	m := &Model{sentiment: govader.NewSentimentIntensityAnalyzer()}
	// An empty document is enough to make prose decode its weights.
	if doc, err := prose.NewDocument("", prose.WithSegmentation(false)); err == nil {
		m.prose = doc.Model
	}
	return m
}

// document parses text with the shared prose weights.
func (m *Model) document(text string, opts ...prose.DocOpt) (*prose.Document, error) {
	if m.prose != nil {
		opts = append(opts, prose.UsingModel(m.prose))
	}
	return prose.NewDocument(text, opts...)
}

var defaultModel = sync.OnceValue(NewModel)

// DefaultModel returns the process-wide Model, loading it on first use.
func DefaultModel() *Model {
	return defaultModel()
}
