package serp

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture replays recorded results from a file mapping query text to a result
// list. The file may be YAML or JSON. Unknown queries return no results.
type Fixture struct {
	results map[string][]Result
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search fixture: %w", err)
	}
	var m map[string][]Result
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode search fixture %s: %w", path, err)
	}
	return NewFixture(m), nil
}

// NewFixture wraps an in-memory query → results mapping.
func NewFixture(m map[string][]Result) *Fixture {
	if m == nil {
		m = make(map[string][]Result)
	}
	return &Fixture{results: m}
}

func (f *Fixture) Name() string { return "fixture" }

func (f *Fixture) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Normalize(f.results[query], limit), nil
}
