// Package config provides 12-factor configuration management for scriptenc.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Logging: Log level and output format
//   - Sandbox: Host page emulation limits used by `scriptenc verify`
//   - Metrics: Prometheus collection toggle
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	pool, err := sandbox.NewPool(cfg.Sandbox.RuntimeConfig(), cfg.Sandbox.PoolSize)
//
// Environment Variables:
//   - LOG_LEVEL, LOG_DEV
//   - SANDBOX_TIMEOUT, SANDBOX_POOL_SIZE, SANDBOX_MAX_MEMORY_MB, SANDBOX_CONSOLE
//   - METRICS_ENABLED
package config
