package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Unknown levels fall back to info.
func (c LoggingConfig) NewLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.Level)))
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	if strings.EqualFold(c.Format, "pretty") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.StampMilli}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
