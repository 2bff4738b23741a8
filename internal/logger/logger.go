package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the todolist logging contract.
// Implementations should support standard log levels and be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	logger zerolog.Logger
}

// New creates a ZeroLogger writing to w at the named level.
// Format "console" writes human-readable lines, anything else writes JSON.
func New(w io.Writer, level, format string) (*ZeroLogger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if format == "console" {
		cw := zerolog.NewConsoleWriter()
		cw.Out = w
		cw.TimeFormat = time.DateTime
		w = cw
	}

	return &ZeroLogger{
		logger: zerolog.New(w).
			Level(lvl).
			With().
			Timestamp().
			Int("pid", os.Getpid()).
			Logger(),
	}, nil
}

func (l *ZeroLogger) Info(msg string, args ...any) {
	l.logger.Info().Msgf(msg, args...)
}

func (l *ZeroLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Msgf(msg, args...)
}

func (l *ZeroLogger) Error(msg string, args ...any) {
	l.logger.Error().Msgf(msg, args...)
}

func (l *ZeroLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Msgf(msg, args...)
}

// Default is used until the configured logger replaces it at startup.
var Default Logger = &ZeroLogger{
	logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
}
