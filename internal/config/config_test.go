package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lumen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimal = `
audit:
  brand: Acme
  category: CRM
  website: https://acme.example
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, []string{"USA"}, cfg.Audit.Markets)
	assert.Equal(t, []string{"what is {brand}"}, cfg.Audit.Queries)
	assert.Equal(t, "google", cfg.Search.Provider)
	assert.Equal(t, 2*time.Second, cfg.Search.Interval)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 12*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "chrome", cfg.Fetch.Fingerprint)
	assert.Equal(t, 600*time.Millisecond, cfg.Signals.OffsiteInterval)
	assert.Equal(t, 10*time.Second, cfg.Signals.OffsiteTimeout)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, "readwrite", cfg.Cache.Mode)
	assert.Equal(t, "data/report.json", cfg.Output.Path)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
  markets: [USA, UK, DE]
  queries:
    - "best {category} in {market}"
    - "{brand} reviews"
search:
  provider: searxng
  searxng_url: http://localhost:8888
  interval: 500ms
cache:
  driver: sqlite
  dsn: file:cache.db
  mode: read
log:
  level: debug
  format: json
  file:
    filename: logs/lumen.log
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"USA", "UK", "DE"}, cfg.Audit.Markets)
	assert.Equal(t, "best {category} in {market}", cfg.Audit.Queries[0])
	assert.Equal(t, "searxng", cfg.Search.Provider)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.Interval)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "read", cfg.Cache.Mode)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "logs/lumen.log", cfg.Log.File.Filename)
	assert.Equal(t, 10, cfg.Log.File.MaxSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LUMEN_AUDIT_BRAND", "Globex")
	t.Setenv("LUMEN_AUDIT_MARKETS", "UK,FR")
	t.Setenv("LUMEN_SEARCH_INTERVAL", "3s")

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, "Globex", cfg.Audit.Brand)
	assert.Equal(t, []string{"UK", "FR"}, cfg.Audit.Markets)
	assert.Equal(t, 3*time.Second, cfg.Search.Interval)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LUMEN_AUDIT_BRAND", "Acme")
	t.Setenv("LUMEN_AUDIT_CATEGORY", "CRM")
	t.Setenv("LUMEN_AUDIT_WEBSITE", "https://acme.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Acme", cfg.Audit.Brand)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing brand", "audit:\n  category: CRM\n  website: https://acme.example\n", "audit.brand is required"},
		{"bad website", "audit:\n  brand: A\n  category: CRM\n  website: not a url\n", "audit.website must be a URL"},
		{"no markets", minimal + "  markets: []\n", "audit.markets needs at least 1 entries"},
		{"repeated market", minimal + "  markets: [USA, UK, USA]\n", "audit.markets must not repeat an entry"},
		{"unknown provider", minimal + "search:\n  provider: bing\n", "search.provider must be one of"},
		{"searxng without url", minimal + "search:\n  provider: searxng\n", "search.searxng_url is required when Provider searxng"},
		{"cache without dsn", minimal + "cache:\n  driver: postgres\n", "cache.dsn is required unless Driver none"},
		{"bad format", minimal + "output:\n  formats: [json, pdf]\n", "output.formats[1] must be one of"},
		{"bad log level", minimal + "log:\n  level: loud\n", "log.level must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_RepeatedMarketFromEnv(t *testing.T) {
	t.Setenv("LUMEN_AUDIT_MARKETS", "USA,USA")
	_, err := Load(writeConfig(t, minimal))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit.markets must not repeat an entry")
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit.brand is required")
	assert.Contains(t, err.Error(), "audit.category is required")
}
