// Package config loads settings from config.yaml, .env and the environment.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PlaceholderPixabayKey is the sample key shipped in example configs.
const PlaceholderPixabayKey = "your-pixabay-api-key"

// Config is the top-level configuration.
type Config struct {
	Pixabay    PixabayConfig    `yaml:"pixabay" mapstructure:"pixabay"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Vision     VisionConfig     `yaml:"vision" mapstructure:"vision"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PixabayConfig configures the image search API.
type PixabayConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig configures candidate image downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBytes    int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// VisionConfig selects the vision backend.
type VisionConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // anthropic, gemini, auto, off
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig configures the Anthropic vision backend.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	VisionModel string `yaml:"vision_model" mapstructure:"vision_model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GeminiConfig configures the Gemini vision backend.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// StoreConfig configures the resolution history store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, none
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures the resolution health checker that runs
// alongside the HTTP server.
type MonitoringConfig struct {
	WebhookURL               string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs        int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours      int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	UnavailableRateThreshold float64 `yaml:"unavailable_rate_threshold" mapstructure:"unavailable_rate_threshold"`
	DegradedRateThreshold    float64 `yaml:"degraded_rate_threshold" mapstructure:"degraded_rate_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is loaded into the process environment first; variables
// already set win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KINDERSLIDES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("pixabay.key", "")
	v.SetDefault("pixabay.base_url", "https://pixabay.com/api/")
	v.SetDefault("pixabay.timeout_secs", 10)
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_bytes", 10<<20)
	v.SetDefault("fetch.user_agent", "kinderslides/1.0")
	v.SetDefault("vision.provider", "auto")
	v.SetDefault("vision.timeout_secs", 10)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.vision_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "kinderslides.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.unavailable_rate_threshold", 0.25)
	v.SetDefault("monitoring.degraded_rate_threshold", 0.5)
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

// Validate checks the settings a command needs. Modes: "resolve" for any
// command that searches for images, "serve" for the HTTP server, "store"
// for commands that only read history.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "resolve":
		problems = append(problems, c.validatePixabay()...)
		problems = append(problems, c.validateStore()...)
	case "serve":
		problems = append(problems, c.validatePixabay()...)
		problems = append(problems, c.validateStore()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "store":
		problems = append(problems, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePixabay() []string {
	key := strings.TrimSpace(c.Pixabay.Key)
	switch {
	case key == "":
		return []string{"pixabay.key is required (set KINDERSLIDES_PIXABAY_KEY)"}
	case key == PlaceholderPixabayKey:
		return []string{"pixabay.key is still the placeholder value"}
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "none":
		return nil
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			return []string{"store.database_url is required for driver " + c.Store.Driver}
		}
		return nil
	default:
		return []string{"store.driver must be sqlite, postgres or none"}
	}
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
