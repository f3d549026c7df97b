// Package config provides 12-factor configuration management for the sortcall
// service.
//
// Configuration is loaded from environment variables with sensible defaults.
// A YAML or TOML file can be layered on top with LoadFile.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, response compression)
//   - Kernel: arena budget, per-process memory limit, process table size
//   - Heartbeat: background timer toggle and period
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, HTTP_COMPRESS
//   - KERNEL_ARENA_BYTES, KERNEL_MAX_PROCESS_MEMORY, KERNEL_MAX_PROCESSES
//   - HEARTBEAT_ENABLED, HEARTBEAT_INTERVAL_MS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
