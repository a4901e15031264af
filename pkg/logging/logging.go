// Package logging adapts charmbracelet/log to orchestrator.Logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger satisfies orchestrator.Logger.
type Logger struct {
	l *log.Logger
}

// New writes leveled key/value logs to w. level is one of debug, info, warn
// or error.
func New(w io.Writer, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "musicgen",
		Level:           lvl,
	})
	return &Logger{l: l}, nil
}

// ParseLevel accepts an empty string as info.
func ParseLevel(level string) (log.Level, error) {
	if strings.TrimSpace(level) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// With returns a logger that adds keyvals to every entry.
func (g *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{l: g.l.With(keyvals...)}
}

func (g *Logger) Debug(msg string, args ...interface{}) { g.l.Debug(msg, args...) }
func (g *Logger) Info(msg string, args ...interface{})  { g.l.Info(msg, args...) }
func (g *Logger) Warn(msg string, args ...interface{})  { g.l.Warn(msg, args...) }
func (g *Logger) Error(msg string, args ...interface{}) { g.l.Error(msg, args...) }
