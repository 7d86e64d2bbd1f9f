package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://serpapi.com", cfg.SerpAPI.BaseURL)
	assert.Equal(t, 120, cfg.Enrich.DeadlineSecs)
	assert.Equal(t, 100, cfg.Enrich.HybridTimeoutSecs)
	assert.Equal(t, 8, cfg.Enrich.AIDirectTimeoutSecs)
	assert.Equal(t, 8, cfg.Enrich.DatabaseTimeoutSecs)
	assert.Zero(t, cfg.Enrich.DatabaseStageTimeoutSecs)
	assert.Equal(t, 30, cfg.Enrich.SynthesisTimeoutSecs)
	assert.Equal(t, 20, cfg.Enrich.RefineTimeoutSecs)
	assert.InDelta(t, 2.0, cfg.Enrich.SearchRatePerSec, 0.001)
	assert.True(t, cfg.Enrich.AIConsolidate)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 2*time.Minute, cfg.Enrich.Deadline())
	assert.Empty(t, cfg.Apollo.Key)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
cache:
  driver: redis
  redis_url: redis://localhost:6379/0
enrich:
  ai_direct_timeout_secs: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 5, cfg.Enrich.AIDirectTimeoutSecs)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Enrich.HybridTimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
ai:
  provider: gemini
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADENRICH_AI_PROVIDER", "perplexity")
	t.Setenv("LEADENRICH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "perplexity", cfg.AI.Provider)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvKeysWithoutDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADENRICH_APOLLO_KEY", "apollo-key")
	t.Setenv("LEADENRICH_SERPAPI_KEY", "serp-key")
	t.Setenv("LEADENRICH_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "apollo-key", cfg.Apollo.Key)
	assert.Equal(t, "serp-key", cfg.SerpAPI.Key)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.AI.Provider = "anthropic"
	cfg.Cache.Driver = "memory"
	cfg.Server.Port = 8080
	cfg.Enrich = EnrichConfig{
		DeadlineSecs:        120,
		HybridTimeoutSecs:   100,
		AIDirectTimeoutSecs: 8,
		DatabaseTimeoutSecs: 8,
		SearchRatePerSec:    2,
		ScrapeConcurrency:   3,
	}
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_NegativeOptionalTimeouts(t *testing.T) {
	cfg := validDefaults()
	cfg.Enrich.RefineTimeoutSecs = -1

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "optional timeouts")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.AI.Provider = "openai"
	cfg.Cache.Driver = "redis"
	cfg.Enrich.SearchRatePerSec = 0

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ai.provider "openai"`)
	assert.Contains(t, err.Error(), "cache.redis_url is required")
	assert.Contains(t, err.Error(), "search_rate_per_sec")
}

func TestValidateBudgets(t *testing.T) {
	cfg := validDefaults()
	cfg.Enrich.HybridTimeoutSecs = 200
	err := cfg.Validate("enrich")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hybrid_timeout_secs must not exceed")

	cfg = validDefaults()
	cfg.Enrich.ScrapeConcurrency = 0
	err = cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scrape_concurrency must be between 1 and 20")

	// Budgets do not matter for offline deduplication.
	assert.NoError(t, cfg.Validate("dedupe"))
}
