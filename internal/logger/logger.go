// Package logger configures structured logging on top of zerolog.
// It supports a human-readable console format and JSON for scripted
// use, selected via the LOG_LEVEL and LOG_FORMAT environment variables.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger for the given component, configured from the
// environment (LOG_LEVEL: debug|info|warn|error, default warn;
// LOG_FORMAT: text|json, default text). Warnings and errors from batch
// scans go through this logger so per-image reports stay on stdout.
func New(component string) zerolog.Logger {
	var output io.Writer = os.Stderr
	if !strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(output).
		Level(parseLevel(os.Getenv("LOG_LEVEL"))).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	case "":
		return zerolog.WarnLevel
	default:
		return zerolog.WarnLevel
	}
}
