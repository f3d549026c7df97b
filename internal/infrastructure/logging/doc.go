// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *zap.Logger and name themselves with Named, so every
// line carries its origin ("syscall", "heartbeat", "http"). Field helpers
// keep the keys used for processes, addresses and syscalls consistent.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Named("syscall").Warn("copy from caller failed",
//		logging.PID(pid), logging.Addr(addr), zap.Error(err))
package logging
