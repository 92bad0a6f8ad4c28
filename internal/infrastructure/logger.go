package infrastructure

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/architeacher/svc-task-runner/internal/config"
	"github.com/architeacher/svc-task-runner/pkg/queue"
)

type Logger struct {
	zerolog.Logger
}

// New builds the service logger. Unknown levels fall back to info.
func New(cfg config.LoggingConfig) Logger {
	return newLogger(cfg, os.Stdout)
}

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() Logger {
	return Logger{Logger: zerolog.Nop()}
}

func newLogger(cfg config.LoggingConfig, out io.Writer) Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = out
	if strings.EqualFold(cfg.Format, "console") {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return Logger{
		Logger: zerolog.New(writer).Level(level).With().Timestamp().Logger(),
	}
}

// Component returns a child logger tagged with the component name.
func (l Logger) Component(name string) Logger {
	return Logger{Logger: l.With().Str("component", name).Logger()}
}

// QueueLogger adapts the logger to the consumer logging interface.
func (l Logger) QueueLogger() queue.Logger {
	zl := l.Logger

	return queue.NewLoggerAdapter[*zerolog.Event](&zl)
}
