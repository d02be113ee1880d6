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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	AI         AIConfig         `yaml:"ai" mapstructure:"ai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Enrichment EnrichmentConfig `yaml:"enrichment" mapstructure:"enrichment"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Delivery   DeliveryConfig   `yaml:"delivery" mapstructure:"delivery"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// BatchSize is the number of transitions committed per transaction.
	BatchSize int   `yaml:"batch_size" mapstructure:"batch_size"`
	MaxConns  int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns  int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// AIConfig selects and guards the AI completion backend.
type AIConfig struct {
	// Provider is "auto", "anthropic", "gemini" or "none". Auto picks the
	// first backend with a key.
	Provider    string        `yaml:"provider" mapstructure:"provider"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Breaker     BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker around AI calls.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EnrichmentConfig configures the enrichment stage.
type EnrichmentConfig struct {
	Mode              string `yaml:"mode" mapstructure:"mode"`
	PrimaryPacingMs   int    `yaml:"primary_pacing_ms" mapstructure:"primary_pacing_ms"`
	SecondaryPacingMs int    `yaml:"secondary_pacing_ms" mapstructure:"secondary_pacing_ms"`
}

// GenerationConfig configures the message generation stage.
type GenerationConfig struct {
	PrimaryPacingMs   int    `yaml:"primary_pacing_ms" mapstructure:"primary_pacing_ms"`
	SecondaryPacingMs int    `yaml:"secondary_pacing_ms" mapstructure:"secondary_pacing_ms"`
	TemplatesPath     string `yaml:"templates_path" mapstructure:"templates_path"`
	StrictContract    bool   `yaml:"strict_contract" mapstructure:"strict_contract"`
	SenderName        string `yaml:"sender_name" mapstructure:"sender_name"`
}

// DeliveryConfig configures the delivery stage.
type DeliveryConfig struct {
	Mode              string     `yaml:"mode" mapstructure:"mode"`
	MaxRetries        int        `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoffMs    int        `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	MessagesPerMinute int        `yaml:"messages_per_minute" mapstructure:"messages_per_minute"`
	SocialDelayMs     int        `yaml:"social_delay_ms" mapstructure:"social_delay_ms"`
	AuditLogPath      string     `yaml:"audit_log_path" mapstructure:"audit_log_path"`
	SMTP              SMTPConfig `yaml:"smtp" mapstructure:"smtp"`
}

// SMTPConfig holds mail transport settings.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	From     string `yaml:"from" mapstructure:"from"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// PipelineConfig holds settings shared by every stage.
type PipelineConfig struct {
	// Seed fixes the random source. Zero seeds from the clock.
	Seed     uint64 `yaml:"seed" mapstructure:"seed"`
	LockPath string `yaml:"lock_path" mapstructure:"lock_path"`
}

// ServerConfig configures the HTTP trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Enrichment and delivery modes.
const (
	EnrichModeOffline = "offline"
	EnrichModeAI      = "ai"

	DeliveryModeDryRun = "dry_run"
	DeliveryModeLive   = "live"
)

// Ms converts a millisecond setting to a duration.
func Ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leads.db")
	v.SetDefault("store.batch_size", 1)
	v.SetDefault("ai.provider", "auto")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.breaker.failure_threshold", 5)
	v.SetDefault("ai.breaker.reset_timeout_secs", 60)
	// Empty defaults register the keys so env overrides reach Unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("generation.templates_path", "")
	v.SetDefault("generation.strict_contract", false)
	v.SetDefault("delivery.smtp.username", "")
	v.SetDefault("delivery.smtp.password", "")
	v.SetDefault("pipeline.seed", 0)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("enrichment.mode", EnrichModeOffline)
	v.SetDefault("enrichment.primary_pacing_ms", 1000)
	v.SetDefault("enrichment.secondary_pacing_ms", 100)
	v.SetDefault("generation.primary_pacing_ms", 1200)
	v.SetDefault("generation.secondary_pacing_ms", 0)
	v.SetDefault("generation.sender_name", "Ashwin")
	v.SetDefault("delivery.mode", DeliveryModeDryRun)
	v.SetDefault("delivery.max_retries", 2)
	v.SetDefault("delivery.retry_backoff_ms", 1000)
	v.SetDefault("delivery.messages_per_minute", 60)
	v.SetDefault("delivery.social_delay_ms", 500)
	v.SetDefault("delivery.audit_log_path", "outreach.log")
	v.SetDefault("delivery.smtp.host", "localhost")
	v.SetDefault("delivery.smtp.port", 1025)
	v.SetDefault("delivery.smtp.from", "me@agentic-ai.com")
	v.SetDefault("pipeline.lock_path", "outreach.lock")
	v.SetDefault("server.port", 8080)
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

// Validate checks the settings a command needs. Mode is the command name.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "enrich", "generate", "deliver", "run", "serve", "status", "requeue", "dead-letters", "migrate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}
	if c.Store.BatchSize < 1 {
		errs = append(errs, "store.batch_size must be >= 1")
	}

	switch c.AI.Provider {
	case "", "auto", "anthropic", "gemini", "none":
	default:
		errs = append(errs, fmt.Sprintf("ai.provider %q is not supported", c.AI.Provider))
	}

	if mode == "enrich" || mode == "run" || mode == "serve" {
		switch c.Enrichment.Mode {
		case EnrichModeOffline, EnrichModeAI:
		default:
			errs = append(errs, fmt.Sprintf("enrichment.mode must be %q or %q", EnrichModeOffline, EnrichModeAI))
		}
	}

	if mode == "deliver" || mode == "run" || mode == "serve" {
		if c.Delivery.MaxRetries < 0 {
			errs = append(errs, "delivery.max_retries must be >= 0")
		}
		if c.Delivery.MessagesPerMinute < 0 {
			errs = append(errs, "delivery.messages_per_minute must be >= 0")
		}
		if c.Delivery.Mode == DeliveryModeLive && c.Delivery.SMTP.Host == "" {
			errs = append(errs, "delivery.smtp.host is required in live mode")
		}
	}

	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config validation failed: %s", strings.Join(errs, "; "))
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
