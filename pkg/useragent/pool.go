package useragent

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"
)

// DefaultAgent is the desktop Chrome string used when no pool is configured.
// Search engines serve their classic organic markup to this family.
const DefaultAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultPool is a small set of current desktop browsers. Mobile agents are
// left out on purpose: they change the SERP layout the parser expects.
var DefaultPool = []string{
	DefaultAgent,
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// Pool hands out User-Agent strings in rotation.
type Pool struct {
	agents []string
	next   atomic.Uint64
}

// NewPool creates a pool from agents, or from DefaultPool when agents is empty.
// Blank entries are dropped.
func NewPool(agents []string) *Pool {
	kept := make([]string, 0, len(agents))
	for _, a := range agents {
		if a != "" {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, DefaultPool...)
	}
	return &Pool{agents: kept}
}

// Next returns agents round-robin. Safe for concurrent use.
func (p *Pool) Next() string {
	idx := p.next.Add(1) - 1
	return p.agents[idx%uint64(len(p.agents))]
}

// Random returns a uniformly chosen agent, falling back to Next if the
// system randomness source fails.
func (p *Pool) Random() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.agents))))
	if err != nil {
		return p.Next()
	}
	return p.agents[n.Int64()]
}

// Len reports how many agents the pool rotates through.
func (p *Pool) Len() int {
	return len(p.agents)
}
