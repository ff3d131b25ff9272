// Package logger builds the zerolog loggers used by tripload.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout of the console writer.
const TimeFormat = "15:04:05.000"

// Options configures New.
type Options struct {
	// Out is where log lines are written. Defaults to os.Stderr.
	Out io.Writer
	// Level is a zerolog level name such as "debug" or "info". Empty means
	// info.
	Level string
	// JSON selects one JSON object per line instead of the console format.
	JSON bool
	// NoColor disables ANSI colors in the console format.
	NoColor bool
}

// New returns a logger with timestamps at the requested level.
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: TimeFormat,
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel parses a level name. The empty string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", s)
	}
	return level, nil
}
