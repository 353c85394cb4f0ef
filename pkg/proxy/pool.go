package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknownProxy is returned when reporting on a proxy the pool never held.
var ErrUnknownProxy = errors.New("proxy not found in pool")

// Config defines settings for the Proxy Pool.
type Config struct {
	// MaxFailures consecutive failures bench a proxy for Cooldown.
	MaxFailures int
	Cooldown    time.Duration
}

type entry struct {
	url        *url.URL
	failures   int
	benchUntil time.Time
}

// Pool rotates outbound fetches across a list of proxies, benching the ones
// that keep failing. An empty pool hands out nil, meaning "go direct".
type Pool struct {
	mu      sync.Mutex
	entries []*entry
	byKey   map[string]*entry
	cursor  int
	cfg     Config
	now     func() time.Time
}

// NewPool creates an empty pool; zero config values get defaults.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		byKey: make(map[string]*entry),
		cfg:   cfg,
		now:   time.Now,
	}
}

// LoadFile adds one proxy URL per line. Blank lines and '#' comments are skipped.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open proxy list: %w", err)
	}
	defer f.Close()

	var raws []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read proxy list: %w", err)
	}
	return p.Add(raws...)
}

// Add parses and appends proxies. A missing scheme defaults to http.
// Duplicates are ignored.
func (p *Pool) Add(raws ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range raws {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse proxy %q: %w", raw, err)
		}
		key := u.String()
		if _, dup := p.byKey[key]; dup {
			continue
		}
		e := &entry{url: u}
		p.entries = append(p.entries, e)
		p.byKey[key] = e
	}
	return nil
}

// Len reports the number of proxies held, benched or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next proxy that is not benched, or nil if none is usable.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for i := 0; i < len(p.entries); i++ {
		e := p.entries[p.cursor]
		p.cursor = (p.cursor + 1) % len(p.entries)

		if !e.benchUntil.IsZero() {
			if now.Before(e.benchUntil) {
				continue
			}
			e.benchUntil = time.Time{}
			e.failures = 0
		}
		return e.url
	}
	return nil
}

// Report records the outcome of a request made through u. A success clears
// the failure streak; MaxFailures failures in a row bench the proxy.
func (p *Pool) Report(u *url.URL, ok bool) error {
	if u == nil {
		return ErrUnknownProxy
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	e, found := p.byKey[u.String()]
	if !found {
		return ErrUnknownProxy
	}

	if ok {
		e.failures = 0
		return nil
	}

	e.failures++
	if e.failures >= p.cfg.MaxFailures {
		e.benchUntil = p.now().Add(p.cfg.Cooldown)
	}
	return nil
}
