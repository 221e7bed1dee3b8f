package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/lafe/teams2mqtt/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "teams2mqtt"

// redacted replaces the value of a sensitive attribute.
const redacted = "[REDACTED]"

// sensitiveKeys are attribute keys whose values never reach the output.
// Matching is case-insensitive and also applies to keys inside groups.
var sensitiveKeys = map[string]bool{
	"token":        true,
	"api_token":    true,
	"password":     true,
	"secret":       true,
	"tokenrefresh": true,
}

// tokenParam matches the pairing token in a conferencing API URL.
var tokenParam = regexp.MustCompile(`([?&]token=)[^&#\s"':]*`)

// Logger is the structured logger shared by every component.
//
// Entries carry service=teams2mqtt and the build version. API tokens and
// broker credentials are masked, both as attributes and inside URLs.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to the configured output.
//
// Parameters:
//   - cfg: Logging section of config.yaml (level, format, output)
//   - version: Build version attached to every entry
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter creates a Logger writing to w, ignoring cfg.Output.
// Tests use it to capture or discard output.
//
// Parameters:
//   - cfg: Logging configuration; only level and format are used
//   - version: Build version attached to every entry
//   - w: Destination for log entries
//
// Returns:
//   - *Logger: Configured logger ready for use
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redact,
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler).With(
			slog.String("service", serviceName),
			slog.String("version", version),
		),
	}
}

// redact masks sensitive attributes. It is used as slog's ReplaceAttr hook.
func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); strings.Contains(s, "token=") {
			return slog.String(a.Key, maskURLToken(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && strings.Contains(err.Error(), "token=") {
			return slog.String(a.Key, maskURLToken(err.Error()))
		}
	}
	return a
}

// maskURLToken replaces the token query value in s.
func maskURLToken(s string) string {
	return tokenParam.ReplaceAllString(s, "${1}"+redacted)
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
//
// Parameters:
//   - args: Key-value pairs added to every entry
//
// Returns:
//   - *Logger: Child logger; the receiver is unchanged
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Component returns a child logger tagged with component=name.
//
//	log.Component("broker").Info("connected") // component=broker
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default returns the startup logger: JSON on stdout at info level,
// used until the configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json"}, "dev")
}
