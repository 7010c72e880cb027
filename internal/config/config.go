package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	envPrefix = "INSIDER"

	DefaultScreenerURL = "https://openinsider.com/screener"
	DefaultSP500URL    = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/master/data/constituents.csv"
	DefaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config mirrors config.yaml. Every field can be overridden from the
// environment, e.g. INSIDER_SCRAPING_MAX_WORKERS=8. Keys are derived from
// field names only; there is no unprefixed fallback.
type Config struct {
	Output    OutputConfig    `yaml:"output" split_words:"true"`
	Scraping  ScrapingConfig  `yaml:"scraping" split_words:"true"`
	Filters   FiltersConfig   `yaml:"filters" split_words:"true"`
	Logging   LoggingConfig   `yaml:"logging" split_words:"true"`
	Cache     CacheConfig     `yaml:"cache" split_words:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" split_words:"true"`
	Metrics   MetricsConfig   `yaml:"metrics" split_words:"true"`
}

type OutputConfig struct {
	Directory string `yaml:"directory" split_words:"true" validate:"required"`
	Filename  string `yaml:"filename" split_words:"true" validate:"required"`
	Format    string `yaml:"format" split_words:"true" validate:"oneof=csv parquet xlsx sqlite"`
}

type ScrapingConfig struct {
	StartYear         int           `yaml:"start_year" split_words:"true" validate:"gte=2003"`
	StartMonth        int           `yaml:"start_month" split_words:"true" validate:"gte=1,lte=12"`
	MaxWorkers        int           `yaml:"max_workers" split_words:"true" validate:"gte=1"`
	RetryAttempts     int           `yaml:"retry_attempts" split_words:"true" validate:"gte=1"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay" split_words:"true" validate:"gte=0"`
	Timeout           int           `yaml:"timeout" split_words:"true" validate:"gte=1"`
	RequestsPerSecond float64       `yaml:"requests_per_second" split_words:"true" validate:"gte=0"`
	BaseURL           string        `yaml:"base_url" split_words:"true" validate:"required,url"`
	UserAgent         string        `yaml:"user_agent" split_words:"true"`
}

type FiltersConfig struct {
	MinTransactionValue float64  `yaml:"min_transaction_value" split_words:"true"`
	TransactionTypes    []string `yaml:"transaction_types" split_words:"true"`
	ExcludeCompanies    []string `yaml:"exclude_companies" split_words:"true"`
	IncludeCompanies    []string `yaml:"include_companies" split_words:"true"`
	MinSharesTraded     float64  `yaml:"min_shares_traded" split_words:"true" validate:"gte=0"`
	IncludeSp500        bool     `yaml:"include_sp500" split_words:"true"`
	Sp500URL            string   `yaml:"sp500_url" split_words:"true" validate:"omitempty,url"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format     string `yaml:"format" split_words:"true" validate:"oneof=text json"`
	File       string `yaml:"file" split_words:"true"`
	RotateLogs bool   `yaml:"rotate_logs" split_words:"true"`
	MaxLogSize int    `yaml:"max_log_size" split_words:"true" validate:"gte=1"`
}

type CacheConfig struct {
	Enabled   bool   `yaml:"enabled" split_words:"true"`
	Directory string `yaml:"directory" split_words:"true" validate:"required_if=Enabled true"`
	MaxAge    int    `yaml:"max_age" split_words:"true" validate:"gte=0"`
}

type TelemetryConfig struct {
	Stdout bool `yaml:"stdout" split_words:"true"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile" split_words:"true"`
}

// Default returns the configuration used when no file or env is present.
func Default(now time.Time) Config {
	return Config{
		Output: OutputConfig{
			Directory: "data",
			Filename:  "insider_trades.csv",
			Format:    "csv",
		},
		Scraping: ScrapingConfig{
			StartYear:      now.Year(),
			StartMonth:     1,
			MaxWorkers:     5,
			RetryAttempts:  3,
			RetryBaseDelay: 2 * time.Second,
			Timeout:        30,
			BaseURL:        DefaultScreenerURL,
			UserAgent:      DefaultUserAgent,
		},
		Filters: FiltersConfig{
			MinTransactionValue: 25000,
			Sp500URL:            DefaultSP500URL,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			File:       "logs/scraper.log",
			RotateLogs: true,
			MaxLogSize: 10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: "data/cache",
			MaxAge:    24,
		},
	}
}

// Load layers defaults, the YAML file at path (optional when empty or
// missing), .env and INSIDER_* environment variables, then validates.
func Load(path string) (*Config, error) {
	cfg := Default(time.Now())

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load(".env")

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Filters.TransactionTypes = trimList(c.Filters.TransactionTypes)
	c.Filters.ExcludeCompanies = trimList(c.Filters.ExcludeCompanies)
	c.Filters.IncludeCompanies = trimList(c.Filters.IncludeCompanies)
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RequestTimeout is the per-attempt HTTP timeout; timeout is in seconds.
func (s ScrapingConfig) RequestTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// CacheMaxAge converts the configured hours.
func (c CacheConfig) CacheMaxAge() time.Duration {
	return time.Duration(c.MaxAge) * time.Hour
}
