package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures a ConsoleLogger. Zero values give info-level console
// output on stderr.
type Options struct {
	Level   string
	Format  string
	Out     io.Writer
	NoColor bool
}

var fieldNamesOnce sync.Once

// ConsoleLogger writes structured log lines through zerolog.
type ConsoleLogger struct {
	zl zerolog.Logger
}

var _ mosaic.Logger = (*ConsoleLogger)(nil)

// ParseLevel accepts debug, info, warn (or warning) and error, case-insensitively.
// An empty string means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("%w: unknown log level %q (want debug, info, warn or error)", mosaic.ErrInvalidConfig, s)
	}
}

func NewConsoleLogger(opts Options) (*ConsoleLogger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	fieldNamesOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		zerolog.TimestampFieldName = "timestamp"
		zerolog.MessageFieldName = "msg"
	})

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: opts.NoColor}
	case FormatJSON:
	default:
		return nil, fmt.Errorf("%w: unknown log format %q (want console or json)", mosaic.ErrInvalidConfig, opts.Format)
	}

	zl := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return &ConsoleLogger{zl: zl}, nil
}

func (l *ConsoleLogger) Debug(format string, args ...any) {
	emit(l.zl.Debug(), format, args)
}

func (l *ConsoleLogger) Info(format string, args ...any) {
	emit(l.zl.Info(), format, args)
}

func (l *ConsoleLogger) Warn(format string, args ...any) {
	emit(l.zl.Warn(), format, args)
}

func (l *ConsoleLogger) Error(format string, args ...any) {
	emit(l.zl.Error(), format, args)
}

// Critical logs at error level and tags the line critical=true.
func (l *ConsoleLogger) Critical(format string, args ...any) {
	emit(l.zl.Error().Bool("critical", true), format, args)
}

func (l *ConsoleLogger) With(key string, value any) mosaic.Logger {
	return &ConsoleLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

func emit(e *zerolog.Event, format string, args []any) {
	if len(args) == 0 {
		e.Msg(format)
		return
	}
	e.Msgf(format, args...)
}
