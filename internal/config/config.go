package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Pricing  PricingConfig  `yaml:"pricing" mapstructure:"pricing"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the cached listing tables.
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	RecencyDays  int    `yaml:"recency_days" mapstructure:"recency_days"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	Watch        bool   `yaml:"watch" mapstructure:"watch"`
}

// PipelineConfig bounds the context handed to the model.
type PipelineConfig struct {
	MaxContextRecords int    `yaml:"max_context_records" mapstructure:"max_context_records"`
	SampleSeed        uint64 `yaml:"sample_seed" mapstructure:"sample_seed"`
	MaxContextBytes   int    `yaml:"max_context_bytes" mapstructure:"max_context_bytes"`
	MaxTrendMonths    int    `yaml:"max_trend_months" mapstructure:"max_trend_months"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
}

// GeminiConfig holds Gemini API credentials.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API credentials.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RetryConfig controls the gateway backoff.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	MaxJitterMs int `yaml:"max_jitter_ms" mapstructure:"max_jitter_ms"`
}

// ScrapeConfig configures the listing scrapers and refresh schedule.
type ScrapeConfig struct {
	Cities             []string `yaml:"cities" mapstructure:"cities"`
	MaxPagesPerSite    int      `yaml:"max_pages_per_site" mapstructure:"max_pages_per_site"`
	FrequencyHours     int      `yaml:"frequency_hours" mapstructure:"frequency_hours"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	RequestDelayMs     int      `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	MaxRetries         int      `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgents         []string `yaml:"user_agents" mapstructure:"user_agents"`
	EnableMagicbricks  bool     `yaml:"enable_magicbricks" mapstructure:"enable_magicbricks"`
	EnableHousing      bool     `yaml:"enable_housing" mapstructure:"enable_housing"`
	EnableGovernment   bool     `yaml:"enable_government" mapstructure:"enable_government"`
	GovernmentRecords  int      `yaml:"government_records" mapstructure:"government_records"`
	SourcesFile        string   `yaml:"sources_file" mapstructure:"sources_file"`
	Concurrency        int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the query log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RequestTimeout int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// PricingConfig holds per-model token rates in USD per million tokens.
// Models is a list rather than a map because model IDs contain dots.
type PricingConfig struct {
	Models []ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing holds input/output rates for one model.
type ModelPricing struct {
	Model  string  `yaml:"model" mapstructure:"model"`
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultUserAgents are rotated by the listing scrapers.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}

// LoadOptions points Load at an explicit config file and command-line flags.
type LoadOptions struct {
	// File replaces the ./config.yaml lookup. It must exist when set.
	File string
	// Flags maps config keys ("data.dir") to flags that override them when set.
	Flags map[string]*pflag.Flag
}

// Load reads configuration from .env, config file, environment and flags.
func Load(opts LoadOptions) (*Config, error) {
	// .env is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigType("yaml")
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("ESTATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.gemini.key", "ESTATE_LLM_GEMINI_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.anthropic.key", "ESTATE_LLM_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")

	// Flags
	for key, f := range opts.Flags {
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, eris.Wrapf(err, "config: bind flag %s", f.Name)
		}
	}

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.recency_days", 30)
	v.SetDefault("data.cache_ttl_secs", 300)
	v.SetDefault("data.watch", true)
	v.SetDefault("pipeline.max_context_records", 50)
	v.SetDefault("pipeline.sample_seed", 42)
	v.SetDefault("pipeline.max_context_bytes", 16384)
	v.SetDefault("pipeline.max_trend_months", 24)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.gemini.model", "gemini-1.5-pro")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.anthropic.max_tokens", 2048)
	v.SetDefault("llm.retry.max_retries", 5)
	v.SetDefault("llm.retry.base_delay_ms", 1000)
	v.SetDefault("llm.retry.max_delay_ms", 60000)
	v.SetDefault("llm.retry.max_jitter_ms", 1000)
	v.SetDefault("scrape.cities", []string{"Mumbai", "Bangalore", "Delhi"})
	v.SetDefault("scrape.max_pages_per_site", 5)
	v.SetDefault("scrape.frequency_hours", 24)
	v.SetDefault("scrape.request_timeout_secs", 30)
	v.SetDefault("scrape.request_delay_ms", 2000)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.user_agents", DefaultUserAgents)
	v.SetDefault("scrape.enable_magicbricks", true)
	v.SetDefault("scrape.enable_housing", true)
	v.SetDefault("scrape.enable_government", true)
	v.SetDefault("scrape.government_records", 1500)
	v.SetDefault("scrape.concurrency", 3)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "estate.db")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 180)
	v.SetDefault("pricing.models", []map[string]any{
		{"model": "gemini-1.5-pro", "input": 1.25, "output": 5.00},
		{"model": "gemini-1.5-flash", "input": 0.075, "output": 0.30},
		{"model": "claude-haiku-4-5-20251001", "input": 0.80, "output": 4.00},
		{"model": "claude-sonnet-4-5-20250929", "input": 3.00, "output": 15.00},
	})
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

// Validate checks that the settings a command depends on are present.
func (c *Config) Validate(mode string) error {
	switch mode {
	case "answer":
		switch c.LLM.Provider {
		case "gemini":
			if c.LLM.Gemini.Key == "" {
				return eris.New("config: llm.gemini.key (GEMINI_API_KEY) is required")
			}
		case "anthropic":
			if c.LLM.Anthropic.Key == "" {
				return eris.New("config: llm.anthropic.key (ANTHROPIC_API_KEY) is required")
			}
		default:
			return eris.Errorf("config: unknown llm.provider %q", c.LLM.Provider)
		}
	case "store":
		switch c.Store.Driver {
		case "sqlite", "postgres":
			if c.Store.DatabaseURL == "" {
				return eris.New("config: store.database_url is required")
			}
		case "none", "":
		default:
			return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
		}
	}
	if c.Data.Dir == "" {
		return eris.New("config: data.dir is required")
	}
	return nil
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
