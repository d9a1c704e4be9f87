// Package config provides 12-factor configuration management for the
// jsonrender server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Catalog: Component catalog files
//   - Generator: Upstream model endpoint, trace replay or the built-in demo
//   - Stream: Line size limit and idle session eviction
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CATALOG_PATH
//   - GENERATOR_URL, GENERATOR_API_KEY, GENERATOR_MODEL, GENERATOR_TIMEOUT,
//     GENERATOR_RETRIES, GENERATOR_RPS, REPLAY_PATH
//   - STREAM_MAX_LINE_BYTES, SESSION_IDLE_TTL
package config
