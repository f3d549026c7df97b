// Package main is the entry point for the sortcall service.
//
// The server hosts simulated processes with their own address spaces and
// exposes syscall 333 (sort_descending) over HTTP, together with a
// heartbeat timer and Prometheus metrics.
//
// Configuration:
//   - Environment variables (12-factor)
//   - A YAML or TOML file via -config
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# From a config file, development logging
//	./server -config sortcall.yaml -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
