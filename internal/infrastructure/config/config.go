package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/axgate/llmgw/internal/infrastructure/breaker"
	"github.com/axgate/llmgw/internal/infrastructure/cache"
)

// AppName is the canonical application name, used to locate the
// global config directory (~/.llmgw).
const AppName = "llmgw"

// Config is the fully merged gateway configuration.
type Config struct {
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GatewayConfig holds the HTTP server bind settings.
type GatewayConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig selects the gorm dialector and DSN.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite | postgres
	DSN  string `mapstructure:"dsn"`
}

// LogConfig holds the log.* settings. cmd/gateway builds its zap logger
// before the config is loaded, with fixed settings (info level, JSON,
// stdout), and does not read these fields.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// CacheConfig selects between the in-process MemoryStore and a shared
// RedisStore, and carries the redis dial settings for the latter.
type CacheConfig struct {
	Backend string            `mapstructure:"backend"` // memory | redis
	Redis   cache.RedisConfig `mapstructure:"redis"`
}

// RateLimitConfig carries rate_limit.default_rpm. The value is loaded but
// not consulted: the dispatcher passes each provider row's own rpm_limit
// to the limiter, where 0 means unlimited.
type RateLimitConfig struct {
	DefaultRPM int `mapstructure:"default_rpm"`
}

// BreakerConfig mirrors breaker.Config so it can be loaded from yaml.
type BreakerConfig struct {
	RingSize            int           `mapstructure:"ring_size"`
	ConsecutiveFailures int           `mapstructure:"consecutive_failures"`
	Cooldown            time.Duration `mapstructure:"cooldown"`
}

// ToBreakerConfig converts the loaded settings into breaker.Config,
// falling back to breaker.DefaultConfig() for any zero field.
func (b BreakerConfig) ToBreakerConfig() breaker.Config {
	cfg := breaker.DefaultConfig()
	if b.RingSize > 0 {
		cfg.RingSize = b.RingSize
	}
	if b.ConsecutiveFailures > 0 {
		cfg.ConsecutiveFailures = b.ConsecutiveFailures
	}
	if b.Cooldown > 0 {
		cfg.Cooldown = b.Cooldown
	}
	return cfg
}

// TelemetryConfig bounds the ChatIO body size and toggles otel tracing.
// MetricsEnabled is loaded but not consulted: the Prometheus collectors
// are always created.
type TelemetryConfig struct {
	IOTruncateBytes int  `mapstructure:"io_truncate_bytes"`
	MetricsEnabled  bool `mapstructure:"metrics_enabled"`
	TracingEnabled  bool `mapstructure:"tracing_enabled"`
}

// HomeDir returns the user's gateway configuration home: ~/.llmgw
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+AppName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 18790)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "llmgw.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.max_retries", 3)
	v.SetDefault("cache.redis.pool_size", 10)
	v.SetDefault("cache.redis.min_idle_conns", 2)
	v.SetDefault("cache.redis.health_check_interval", 30*time.Second)

	v.SetDefault("rate_limit.default_rpm", 600)

	v.SetDefault("breaker.ring_size", 128)
	v.SetDefault("breaker.consecutive_failures", 3)
	v.SetDefault("breaker.cooldown", 30*time.Second)

	v.SetDefault("telemetry.io_truncate_bytes", 64*1024)
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.tracing_enabled", true)
}

// Load merges config in four layers, each overriding the last:
// built-in defaults, ~/.llmgw/config.yaml (global), ./config.yaml or
// ./config/config.yaml (local), then LLMGW_-prefixed environment
// variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	globalDir := HomeDir()
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read global config: %w", err)
		}
	}

	local := viper.New()
	local.SetConfigName("config")
	local.SetConfigType("yaml")
	local.AddConfigPath("./config")
	local.AddConfigPath(".")
	if err := local.ReadInConfig(); err == nil {
		if mergeErr := v.MergeConfigMap(local.AllSettings()); mergeErr != nil {
			return nil, fmt.Errorf("merge local config: %w", mergeErr)
		}
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return nil, fmt.Errorf("read local config: %w", err)
	}

	v.SetEnvPrefix("LLMGW")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
