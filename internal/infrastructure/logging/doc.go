// Package logging provides structured logging for Garden Core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("router started", "patterns", 4)
//	logger.Warn("dropping message", "topic", topic, "error", err)
//
// # Security
//
// Never log secrets, tokens, passwords, or API keys.
// Log the resolved subject of a realtime connection, never the bearer token:
//
//	logger.Info("token accepted", "subject", subject.String())
//
// Components take a narrow Logger interface rather than *Logger so they can
// be tested with a no-op implementation.
package logging
