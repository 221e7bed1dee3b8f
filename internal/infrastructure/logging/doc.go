// Package logging provides structured logging for Teams2Mqtt.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same handler, level and default fields.
//
// # Features
//
//   - JSON output for service deployments (machine-parsable)
//   - Text output for interactive runs (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Credential redaction (tokens, passwords, secrets)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connected to conferencing API", "host", cfg.Teams.Host)
//
// # Security
//
// Attributes named token, api_token, tokenRefresh, password or secret are
// written as [REDACTED], and a token query parameter inside any string or
// error value is masked. Still, never log credentials on purpose.
package logging
