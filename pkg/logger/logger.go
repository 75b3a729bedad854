// Package logger builds the root zerolog logger for the backtester. One
// logger is created at startup and handed down; components tag themselves
// with With().Str fields instead of constructing their own.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls log verbosity and output format.
type Config struct {
	Level  string // trace, debug, info, warn or error
	Pretty bool   // human-readable console output for development
}

// New builds the root logger and applies the global level.
func New(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Logger()
}

// parseLevel maps a config string to a zerolog level. Unknown or empty
// strings default to info.
func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetGlobalLogger replaces zerolog's package-level logger so code going
// through rs/zerolog/log shares the configured output.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
