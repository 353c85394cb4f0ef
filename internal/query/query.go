// Package query expands an audit configuration into the search queries the
// market scorer runs.
package query

import "strings"

// Query is one search string localized to a market.
type Query struct {
	Market string
	Text   string
}

// Build substitutes {brand}, {category} and {market} into every template for
// every market. Output is market-major, template-minor. Unknown placeholders
// are left as written.
func Build(brand, category string, markets, templates []string) []Query {
	out := make([]Query, 0, len(markets)*len(templates))
	for _, m := range markets {
		r := strings.NewReplacer("{brand}", brand, "{category}", category, "{market}", m)
		for _, tpl := range templates {
			out = append(out, Query{Market: m, Text: r.Replace(tpl)})
		}
	}
	return out
}

// ByMarket groups queries by market, preserving order within each group.
func ByMarket(qs []Query) map[string][]Query {
	out := make(map[string][]Query)
	for _, q := range qs {
		out[q.Market] = append(out[q.Market], q)
	}
	return out
}
