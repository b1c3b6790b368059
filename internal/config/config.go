package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Tavily     TavilyConfig     `yaml:"tavily" mapstructure:"tavily"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Mem0       Mem0Config       `yaml:"mem0" mapstructure:"mem0"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SearchConfig configures query resolution.
type SearchConfig struct {
	// Provider is "auto", "tavily", "perplexity" or "jina". "auto" picks the
	// first provider with a key.
	Provider            string `yaml:"provider" mapstructure:"provider"`
	MinResults          int    `yaml:"min_results" mapstructure:"min_results"`
	MaxResults          int    `yaml:"max_results" mapstructure:"max_results"`
	Mode                string `yaml:"mode" mapstructure:"mode"`
	FallbackTrigger     int    `yaml:"fallback_trigger" mapstructure:"fallback_trigger"`
	DescriptionLimit    int    `yaml:"description_limit" mapstructure:"description_limit"`
	CacheTTLSecs        int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	CacheMaxEntries     int    `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`
	TimeoutSecs         int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FailOnProviderError bool   `yaml:"fail_on_provider_error" mapstructure:"fail_on_provider_error"`
	BackfillEmpty       bool   `yaml:"backfill_empty" mapstructure:"backfill_empty"`
}

// CacheTTL returns the result cache lifetime.
func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSecs) * time.Second
}

// Timeout returns the per-resolution deadline. Zero means none.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// CatalogConfig points at an alternative curated catalog.
type CatalogConfig struct {
	// Path to a catalog YAML file. Empty uses the embedded catalog.
	Path string `yaml:"path" mapstructure:"path"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	SearchDepth string  `yaml:"search_depth" mapstructure:"search_depth"`
	MaxResults  int     `yaml:"max_results" mapstructure:"max_results"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// JinaConfig holds Jina AI Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// AnthropicConfig holds Anthropic API settings. With a key set, Jina hits
// are condensed into a labeled answer by Model.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// Mem0Config holds Mem0 memory API settings.
type Mem0Config struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	UserID  string `yaml:"user_id" mapstructure:"user_id"`
}

// StoreConfig configures the memory backend.
type StoreConfig struct {
	// Driver is "none", "mem0", "sqlite" or "postgres".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
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

var (
	knownProviders = []string{"auto", "tavily", "perplexity", "jina"}
	knownDrivers   = []string{"none", "mem0", "sqlite", "postgres"}
	knownModes     = []string{"strict", "relaxed"}
)

// Load reads configuration from config.yaml, .env and TOOLSCOUT_*
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	// Existing environment wins over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TOOLSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key is listed so AutomaticEnv can see it.
	v.SetDefault("search.provider", "auto")
	v.SetDefault("search.min_results", 3)
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.mode", "strict")
	v.SetDefault("search.fallback_trigger", 0)
	v.SetDefault("search.description_limit", 200)
	v.SetDefault("search.cache_ttl_secs", 300)
	v.SetDefault("search.cache_max_entries", 1000)
	v.SetDefault("search.timeout_secs", 60)
	v.SetDefault("search.fail_on_provider_error", false)
	v.SetDefault("search.backfill_empty", true)
	v.SetDefault("catalog.path", "")
	v.SetDefault("tavily.key", "")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.search_depth", "advanced")
	v.SetDefault("tavily.max_results", 10)
	v.SetDefault("tavily.rate_per_sec", 2.0)
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("mem0.key", "")
	v.SetDefault("mem0.base_url", "https://api.mem0.ai")
	v.SetDefault("mem0.user_id", "toolscout")
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks value ranges and enumerations. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []string
	s := c.Search

	if s.MaxResults < 1 {
		errs = append(errs, fmt.Sprintf("search.max_results must be >= 1, got %d", s.MaxResults))
	}
	if s.MinResults < 0 {
		errs = append(errs, fmt.Sprintf("search.min_results must be >= 0, got %d", s.MinResults))
	}
	if s.MaxResults >= 1 && s.MinResults > s.MaxResults {
		errs = append(errs, fmt.Sprintf("search.min_results (%d) exceeds search.max_results (%d)", s.MinResults, s.MaxResults))
	}
	if s.CacheTTLSecs < 0 {
		errs = append(errs, "search.cache_ttl_secs must be >= 0")
	}
	if s.TimeoutSecs < 0 {
		errs = append(errs, "search.timeout_secs must be >= 0")
	}
	if !oneOf(s.Provider, knownProviders) {
		errs = append(errs, fmt.Sprintf("unknown search.provider %q (want one of %s)", s.Provider, strings.Join(knownProviders, ", ")))
	}
	if !oneOf(s.Mode, knownModes) {
		errs = append(errs, fmt.Sprintf("unknown search.mode %q (want one of %s)", s.Mode, strings.Join(knownModes, ", ")))
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, fmt.Sprintf("store.database_url is required for the %s driver", c.Store.Driver))
		}
	case "mem0":
		if c.Mem0.Key == "" {
			errs = append(errs, "mem0.key is required for the mem0 driver")
		}
	case "none":
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q (want one of %s)", c.Store.Driver, strings.Join(knownDrivers, ", ")))
	}

	if c.Anthropic.Key != "" && c.Anthropic.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("anthropic.max_tokens must be >= 1, got %d", c.Anthropic.MaxTokens))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be > 0 and <= 65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
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
