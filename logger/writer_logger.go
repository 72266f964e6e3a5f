package logger

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// WriterLogger implements the Logger interface using charmbracelet/log
type WriterLogger struct {
	logger *log.Logger
}

// NewWriterLogger creates a logger that writes to w at the named level
// (debug, info, warn, error)
func NewWriterLogger(w io.Writer, level string) (*WriterLogger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:  lvl,
		Prefix: "pluginmeta",
	})

	return &WriterLogger{logger: logger}, nil
}

var _ Logger = (*WriterLogger)(nil)

// Info logs an informational message
func (l *WriterLogger) Info(msg string, args ...interface{}) {
	if len(args) == 0 {
		l.logger.Info(msg)
		return
	}
	l.logger.With(args...).Info(msg)
}

// Debug logs a debug message
func (l *WriterLogger) Debug(msg string, args ...interface{}) {
	if len(args) == 0 {
		l.logger.Debug(msg)
		return
	}
	l.logger.With(args...).Debug(msg)
}

// Warn logs a warning message
func (l *WriterLogger) Warn(msg string, args ...interface{}) {
	if len(args) == 0 {
		l.logger.Warn(msg)
		return
	}
	l.logger.With(args...).Warn(msg)
}

// Error logs an error message
func (l *WriterLogger) Error(msg string, args ...interface{}) {
	if len(args) == 0 {
		l.logger.Error(msg)
		return
	}
	l.logger.With(args...).Error(msg)
}
