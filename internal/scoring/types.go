// Package scoring turns search results into per-market visibility sub-scores
// and a weighted overall score.
package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// QueryMetrics are the per-query measurements. Values are stored rounded:
// recognition and sentiment to 3 places, context depth to 2.
type QueryMetrics struct {
	Query        string  `json:"query" yaml:"query"`
	Recognition  float64 `json:"recognition" yaml:"recognition"`
	ContextDepth float64 `json:"context_depth" yaml:"context_depth"`
	Sentiment    float64 `json:"sentiment" yaml:"sentiment"`
	Mentions     int     `json:"mentions" yaml:"mentions"`
}

// CompetitorCount is a rival name and how often it appeared next to the
// brand. It serializes as a two-element [name, count] array.
type CompetitorCount struct {
	Name  string
	Count int
}

func (c CompetitorCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Name, c.Count})
}

func (c *CompetitorCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("competitor entry must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Name); err != nil {
		return fmt.Errorf("competitor name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Count); err != nil {
		return fmt.Errorf("competitor count: %w", err)
	}
	return nil
}

func (c CompetitorCount) MarshalYAML() (any, error) {
	return []any{c.Name, c.Count}, nil
}

// MarketScore is one market's result. Percentages are in [0, 100], rounded to
// one decimal place.
type MarketScore struct {
	RecognitionPct float64           `json:"recognition_pct" yaml:"recognition_pct"`
	ContextAvg     float64           `json:"context_avg" yaml:"context_avg"`
	SentimentPct   float64           `json:"sentiment_pct" yaml:"sentiment_pct"`
	CompetitivePct float64           `json:"competitive_pct" yaml:"competitive_pct"`
	Mentions       int               `json:"mentions" yaml:"mentions"`
	Queries        []QueryMetrics    `json:"queries" yaml:"queries"`
	Competitors    []CompetitorCount `json:"competitors" yaml:"competitors"`
}

// MarketEntry pairs a market name with its score.
type MarketEntry struct {
	Market string
	Score  MarketScore
}

// MarketScores keeps markets in configuration order. It serializes as an
// object whose keys follow that order.
type MarketScores []MarketEntry

// Get returns the score for market.
func (m MarketScores) Get(market string) (MarketScore, bool) {
	for _, e := range m {
		if e.Market == market {
			return e.Score, true
		}
	}
	return MarketScore{}, false
}

func (m MarketScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Market)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Score)
		if err != nil {
			return nil, fmt.Errorf("market %s: %w", e.Market, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *MarketScores) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("scores_by_market must be an object")
	}

	out := MarketScores{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		market, _ := tok.(string)
		var score MarketScore
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("market %s: %w", market, err)
		}
		out = append(out, MarketEntry{Market: market, Score: score})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m MarketScores) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m {
		var val yaml.Node
		if err := val.Encode(e.Score); err != nil {
			return nil, fmt.Errorf("market %s: %w", e.Market, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Market}, &val)
	}
	return node, nil
}

// Breakdown is the cross-market mean of each sub-score.
type Breakdown struct {
	RecognitionPct float64 `json:"recognition_pct" yaml:"recognition_pct"`
	ContextAvg     float64 `json:"context_avg" yaml:"context_avg"`
	SentimentPct   float64 `json:"sentiment_pct" yaml:"sentiment_pct"`
	CompetitivePct float64 `json:"competitive_pct" yaml:"competitive_pct"`
}
