// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name (debug, info, warn, error). Default: info.
	Level string

	// Format is "console" or "json". Default: console.
	Format string

	// Output receives log lines. Default: os.Stderr.
	Output io.Writer
}

// Logger is the base logger component loggers derive from.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init replaces the base logger according to cfg.
func Init(cfg Config) error {
	level := zerolog.InfoLevel
	if strings.TrimSpace(cfg.Level) != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
		if err != nil {
			return err
		}
		level = parsed
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Discard silences all logging. Used while the TUI owns the terminal.
func Discard() {
	Logger = zerolog.Nop()
}
