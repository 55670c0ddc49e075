package config

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/logging"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/sandbox"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Logging LogConfig
	Sandbox SandboxConfig
	Metrics MetricsConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// SandboxConfig holds host page emulation limits.
type SandboxConfig struct {
	Timeout       time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
	PoolSize      int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	MaxMemoryMB   int64         `envconfig:"SANDBOX_MAX_MEMORY_MB" default:"50"`
	EnableConsole bool          `envconfig:"SANDBOX_CONSOLE" default:"true"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Sandbox: SandboxConfig{
			Timeout:       5 * time.Second,
			PoolSize:      4,
			MaxMemoryMB:   50,
			EnableConsole: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// LoggerConfig converts the logging section for logging.New.
func (c LogConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if c.Development {
		cfg = logging.DevelopmentConfig()
	}
	if c.Level != "" {
		cfg.Level = c.Level
	}
	return cfg
}

// RuntimeConfig converts the sandbox section for sandbox.New.
func (c SandboxConfig) RuntimeConfig() sandbox.Config {
	return sandbox.Config{
		MaxMemoryMB:   c.MaxMemoryMB,
		Timeout:       c.Timeout,
		EnableConsole: c.EnableConsole,
		EnableDOM:     true,
	}
}
