package scoring

import "sort"

// MaxCompetitors caps every published competitor list.
const MaxCompetitors = 8

// Tally counts competitor mentions, remembering the order names first
// appeared. The zero value is ready to use.
type Tally struct {
	order  []string
	counts map[string]int
}

// Add records one mention of name.
func (t *Tally) Add(name string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[name]; !ok {
		t.order = append(t.order, name)
	}
	t.counts[name]++
}

// Count is the number of mentions recorded for name.
func (t *Tally) Count(name string) int { return t.counts[name] }

// Len is the number of distinct names.
func (t *Tally) Len() int { return len(t.order) }

// Max is the highest single count, 0 when empty.
func (t *Tally) Max() int {
	m := 0
	for _, c := range t.counts {
		m = max(m, c)
	}
	return m
}

// Top returns up to n names by count descending; equal counts keep
// first-seen order.
func (t *Tally) Top(n int) []CompetitorCount {
	all := make([]CompetitorCount, 0, len(t.order))
	for _, name := range t.order {
		all = append(all, CompetitorCount{Name: name, Count: t.counts[name]})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Count > all[j].Count })
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
