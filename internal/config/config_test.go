package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
output:
  directory: out
  filename: trades.parquet
  format: Parquet
scraping:
  start_year: 2021
  start_month: 6
  max_workers: 8
  retry_attempts: 4
  retry_base_delay: 500ms
  timeout: 45
filters:
  min_transaction_value: 100000
  transaction_types: ["P - Purchase", " S - Sale "]
  exclude_companies: [BRK.A]
  include_companies: []
  min_shares_traded: 500
logging:
  level: DEBUG
  file: ""
  rotate_logs: false
  max_log_size: 5
cache:
  enabled: true
  directory: cache
  max_age: 12
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, 2021, cfg.Scraping.StartYear)
	assert.Equal(t, 6, cfg.Scraping.StartMonth)
	assert.Equal(t, 8, cfg.Scraping.MaxWorkers)
	assert.Equal(t, 4, cfg.Scraping.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraping.RetryBaseDelay)
	assert.Equal(t, 45*time.Second, cfg.Scraping.RequestTimeout())
	assert.Equal(t, DefaultScreenerURL, cfg.Scraping.BaseURL)
	assert.Equal(t, []string{"P - Purchase", "S - Sale"}, cfg.Filters.TransactionTypes)
	assert.Equal(t, []string{"BRK.A"}, cfg.Filters.ExcludeCompanies)
	assert.Empty(t, cfg.Filters.IncludeCompanies)
	assert.Equal(t, float64(100000), cfg.Filters.MinTransactionValue)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 12*time.Hour, cfg.Cache.CacheMaxAge())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := Default(time.Now())
	assert.Equal(t, def.Output, cfg.Output)
	assert.Equal(t, float64(25000), cfg.Filters.MinTransactionValue)
	assert.Equal(t, 3, cfg.Scraping.RetryAttempts)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24, cfg.Cache.MaxAge)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("INSIDER_SCRAPING_MAX_WORKERS", "2")
	t.Setenv("INSIDER_OUTPUT_FORMAT", "xlsx")
	t.Setenv("INSIDER_FILTERS_INCLUDE_COMPANIES", "AAPL,MSFT")
	t.Setenv("INSIDER_CACHE_ENABLED", "false")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scraping.MaxWorkers)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Filters.IncludeCompanies)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"unknown format": "output:\n  format: feather\n",
		"zero workers":   "scraping:\n  max_workers: 0\n",
		"bad month":      "scraping:\n  start_month: 13\n",
		"no attempts":    "scraping:\n  retry_attempts: 0\n",
		"malformed yaml": "scraping: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestBareEnvNamesAreIgnored(t *testing.T) {
	t.Setenv("FORMAT", "json")
	t.Setenv("DIRECTORY", "/tmp/elsewhere")
	t.Setenv("TIMEOUT", "7")
	t.Setenv("ENABLED", "false")
	t.Setenv("MAX_WORKERS", "99")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, "cache", cfg.Cache.Directory)
	assert.Equal(t, 45, cfg.Scraping.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 8, cfg.Scraping.MaxWorkers)
}

func TestPrefixedEnvKeysFollowFieldNames(t *testing.T) {
	t.Setenv("INSIDER_SCRAPING_TIMEOUT", "7")
	t.Setenv("INSIDER_SCRAPING_BASE_URL", "http://localhost:8080/screener")
	t.Setenv("INSIDER_CACHE_MAX_AGE", "6")
	t.Setenv("INSIDER_LOGGING_FORMAT", "json")
	t.Setenv("INSIDER_FILTERS_INCLUDE_SP500", "true")
	t.Setenv("INSIDER_FILTERS_SP500_URL", "http://localhost:8080/constituents.csv")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Scraping.Timeout)
	assert.Equal(t, "http://localhost:8080/screener", cfg.Scraping.BaseURL)
	assert.Equal(t, 6, cfg.Cache.MaxAge)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.True(t, cfg.Filters.IncludeSp500)
	assert.Equal(t, "http://localhost:8080/constituents.csv", cfg.Filters.Sp500URL)
}
