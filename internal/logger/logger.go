// Package logger builds the zerolog logger shared by the commands.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON to stderr at the given level. Unknown
// levels fall back to info.
func New(service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stderr).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
