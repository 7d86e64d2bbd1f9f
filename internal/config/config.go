package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	AI         AIConfig         `yaml:"ai" mapstructure:"ai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	SerpAPI    SerpAPIConfig    `yaml:"serpapi" mapstructure:"serpapi"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Browser    BrowserConfig    `yaml:"browser" mapstructure:"browser"`
	Apollo     APIKeyConfig     `yaml:"apollo" mapstructure:"apollo"`
	Hunter     APIKeyConfig     `yaml:"hunter" mapstructure:"hunter"`
	Clearbit   APIKeyConfig     `yaml:"clearbit" mapstructure:"clearbit"`
	Waterfall  WaterfallConfig  `yaml:"waterfall" mapstructure:"waterfall"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AIConfig selects the text generation backend: anthropic, gemini,
// perplexity or none.
type AIConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// SerpAPIConfig holds SerpAPI search settings.
type SerpAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// BrowserConfig configures the headless browser scraper. ControlURL points
// at an existing DevTools endpoint; when empty a local browser is launched.
type BrowserConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ControlURL  string `yaml:"control_url" mapstructure:"control_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// APIKeyConfig holds settings for a key-authenticated contact database.
type APIKeyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WaterfallConfig points at the contact-database cascade definition.
type WaterfallConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// EnrichConfig holds the cascade's time budgets and rate limits.
// DatabaseTimeoutSecs is the per-provider budget; DatabaseStageTimeoutSecs,
// when positive, also bounds the database stage as a whole.
type EnrichConfig struct {
	DeadlineSecs             int     `yaml:"deadline_secs" mapstructure:"deadline_secs"`
	HybridTimeoutSecs        int     `yaml:"hybrid_timeout_secs" mapstructure:"hybrid_timeout_secs"`
	AIDirectTimeoutSecs      int     `yaml:"ai_direct_timeout_secs" mapstructure:"ai_direct_timeout_secs"`
	DatabaseTimeoutSecs      int     `yaml:"database_timeout_secs" mapstructure:"database_timeout_secs"`
	DatabaseStageTimeoutSecs int     `yaml:"database_stage_timeout_secs" mapstructure:"database_stage_timeout_secs"`
	SynthesisTimeoutSecs     int     `yaml:"synthesis_timeout_secs" mapstructure:"synthesis_timeout_secs"`
	RefineTimeoutSecs        int     `yaml:"refine_timeout_secs" mapstructure:"refine_timeout_secs"`
	SearchRatePerSec         float64 `yaml:"search_rate_per_sec" mapstructure:"search_rate_per_sec"`
	SearchLimit              int     `yaml:"search_limit" mapstructure:"search_limit"`
	ScrapeConcurrency        int     `yaml:"scrape_concurrency" mapstructure:"scrape_concurrency"`
	AIConsolidate            bool    `yaml:"ai_consolidate" mapstructure:"ai_consolidate"`
}

// Deadline returns the overall request budget.
func (c EnrichConfig) Deadline() time.Duration {
	return time.Duration(c.DeadlineSecs) * time.Second
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	RedisURL   string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be registered for Unmarshal to see env values.
	for _, key := range []string{
		"anthropic.key", "gemini.key", "perplexity.key", "serpapi.key", "jina.key",
		"firecrawl.key", "apollo.key", "hunter.key", "clearbit.key",
		"browser.control_url", "cache.redis_url", "waterfall.config_path",
	} {
		_ = v.BindEnv(key)
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.timeout_secs", 30)
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("hunter.base_url", "https://api.hunter.io")
	v.SetDefault("clearbit.base_url", "https://company.clearbit.com")
	v.SetDefault("enrich.deadline_secs", 120)
	v.SetDefault("enrich.hybrid_timeout_secs", 100)
	v.SetDefault("enrich.ai_direct_timeout_secs", 8)
	v.SetDefault("enrich.database_timeout_secs", 8)
	v.SetDefault("enrich.database_stage_timeout_secs", 0)
	v.SetDefault("enrich.synthesis_timeout_secs", 30)
	v.SetDefault("enrich.refine_timeout_secs", 20)
	v.SetDefault("enrich.search_rate_per_sec", 2.0)
	v.SetDefault("enrich.search_limit", 10)
	v.SetDefault("enrich.scrape_concurrency", 3)
	v.SetDefault("enrich.ai_consolidate", true)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl_minutes", 60)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks settings required by the given command mode: "serve",
// "enrich" or "dedupe". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.AI.Provider {
	case "anthropic", "gemini", "perplexity", "none", "":
	default:
		errs = append(errs, fmt.Sprintf("ai.provider %q is not one of anthropic, gemini, perplexity, none", c.AI.Provider))
	}
	switch c.Cache.Driver {
	case "memory", "none", "":
	case "redis":
		if c.Cache.RedisURL == "" {
			errs = append(errs, "cache.redis_url is required for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.driver %q is not one of memory, redis, none", c.Cache.Driver))
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateBudgets()...)
	case "enrich":
		errs = append(errs, c.validateBudgets()...)
	case "dedupe":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateBudgets() []string {
	var errs []string
	e := c.Enrich
	if e.DeadlineSecs <= 0 {
		errs = append(errs, "enrich.deadline_secs must be > 0")
	}
	if e.HybridTimeoutSecs <= 0 || e.AIDirectTimeoutSecs <= 0 || e.DatabaseTimeoutSecs <= 0 {
		errs = append(errs, "enrich stage timeouts must be > 0")
	}
	if e.DatabaseStageTimeoutSecs < 0 || e.SynthesisTimeoutSecs < 0 || e.RefineTimeoutSecs < 0 {
		errs = append(errs, "enrich optional timeouts must not be negative")
	}
	if e.HybridTimeoutSecs > e.DeadlineSecs {
		errs = append(errs, "enrich.hybrid_timeout_secs must not exceed enrich.deadline_secs")
	}
	if e.SearchRatePerSec <= 0 {
		errs = append(errs, "enrich.search_rate_per_sec must be > 0")
	}
	if e.ScrapeConcurrency < 1 || e.ScrapeConcurrency > 20 {
		errs = append(errs, "enrich.scrape_concurrency must be between 1 and 20")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
