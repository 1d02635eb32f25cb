// Package logging sets up structured logging for the agent.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error (default: info)
	Console bool   // human-readable console output instead of JSON
}

// New creates the root logger. Packages derive their own sub-loggers with
// a component field.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", "avatar-agent").
		Logger()
}
