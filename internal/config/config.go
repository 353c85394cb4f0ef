// Package config loads and validates the audit configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/FranksOps/lumen/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LUMEN_AUDIT_BRAND.
const EnvPrefix = "LUMEN"

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "lumen.yaml"

// Config is the full run configuration.
type Config struct {
	Audit   Audit          `mapstructure:"audit"`
	Search  Search         `mapstructure:"search"`
	Fetch   Fetch          `mapstructure:"fetch"`
	Signals Signals        `mapstructure:"signals"`
	Cache   Cache          `mapstructure:"cache"`
	Output  Output         `mapstructure:"output"`
	Metrics Metrics        `mapstructure:"metrics"`
	Log     logging.Config `mapstructure:"log"`
}

// Audit is what gets audited. It does not change during a run.
type Audit struct {
	Brand    string `mapstructure:"brand" validate:"required"`
	Category string `mapstructure:"category" validate:"required"`
	Website  string `mapstructure:"website" validate:"required,http_url"`
	// Markets are scored in this order and must be distinct.
	Markets []string `mapstructure:"markets" validate:"min=1,unique,dive,required"`
	// Queries are templates with {brand}, {category} and {market} placeholders.
	Queries []string `mapstructure:"queries" validate:"min=1,dive,required"`
}

type Search struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=google searxng fixture"`
	GoogleBase  string        `mapstructure:"google_base" validate:"omitempty,http_url"`
	SearXNGURL  string        `mapstructure:"searxng_url" validate:"required_if=Provider searxng,omitempty,http_url"`
	FixturePath string        `mapstructure:"fixture_path" validate:"required_if=Provider fixture"`
	Interval    time.Duration `mapstructure:"interval" validate:"gte=0"`
	Jitter      float64       `mapstructure:"jitter" validate:"gte=0,lte=1"`
	MaxResults  int           `mapstructure:"max_results" validate:"gte=1,lte=10"`
}

type Fetch struct {
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	CookieJar    bool          `mapstructure:"cookie_jar"`
	Fingerprint  string        `mapstructure:"fingerprint" validate:"oneof=chrome firefox safari go random"`
	UserAgents   []string      `mapstructure:"user_agents"`
	Proxies      []string      `mapstructure:"proxies" validate:"dive,url"`
	ProxyFile    string        `mapstructure:"proxy_file"`
}

type Signals struct {
	OffsiteInterval time.Duration `mapstructure:"offsite_interval" validate:"gte=0"`
	OffsiteTimeout  time.Duration `mapstructure:"offsite_timeout" validate:"gt=0"`
	RespectRobots   bool          `mapstructure:"respect_robots"`
}

// Cache configures the optional fetch cache.
type Cache struct {
	Driver string `mapstructure:"driver" validate:"oneof=none sqlite postgres jsonl"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver none"`
	Mode   string `mapstructure:"mode" validate:"oneof=read write readwrite"`
}

type Output struct {
	Path    string   `mapstructure:"path" validate:"required"`
	Formats []string `mapstructure:"formats" validate:"dive,oneof=json text html yaml"`
}

type Metrics struct {
	// Addr, when set, serves /metrics for the duration of the run.
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Textfile string `mapstructure:"textfile"`
}

// Defaults are applied before the file and the environment.
var Defaults = map[string]any{
	"audit.brand":              "",
	"audit.category":           "",
	"audit.website":            "",
	"audit.markets":            []string{"USA"},
	"audit.queries":            []string{"what is {brand}"},
	"search.provider":          "google",
	"search.google_base":       "",
	"search.searxng_url":       "",
	"search.fixture_path":      "",
	"search.interval":          "2s",
	"search.jitter":            0.0,
	"search.max_results":       10,
	"fetch.timeout":            "12s",
	"fetch.max_redirects":      10,
	"fetch.cookie_jar":         false,
	"fetch.fingerprint":        "chrome",
	"fetch.user_agents":        []string{},
	"fetch.proxies":            []string{},
	"fetch.proxy_file":         "",
	"signals.offsite_interval": "600ms",
	"signals.offsite_timeout":  "10s",
	"signals.respect_robots":   false,
	"cache.driver":             "none",
	"cache.dsn":                "",
	"cache.mode":               "readwrite",
	"output.path":              "data/report.json",
	"output.formats":           []string{"json"},
	"metrics.addr":             "",
	"metrics.textfile":         "",
	"log.level":                "info",
	"log.format":               "text",
	"log.file.filename":        "",
	"log.file.max_size":        10,
	"log.file.max_age":         7,
	"log.file.max_backups":     3,
	"log.file.compress":        false,
}

// Load reads path (or DefaultFile when path is empty and the file exists),
// applies LUMEN_ environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigFile(DefaultFile)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks every field and reports all violations in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// drop the root type name from "Config.audit.brand"
	_, field, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must not repeat an entry, got %v", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a URL, got %v", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}
