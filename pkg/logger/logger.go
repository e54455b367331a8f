// Package logger wraps logrus with the field helpers the suite's services
// expect. Services accept a *Logger and fall back to NewDefault when nil.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
	Output string // "stdout", "stderr" or a file path
}

// Logger is a thin wrapper around a logrus entry so call sites can chain
// WithField/WithError without importing logrus directly.
type Logger struct {
	entry *logrus.Entry
}

// New builds a logger from config.
func New(cfg LoggingConfig) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.SetOutput(resolveOutput(cfg.Output))

	return &Logger{entry: logrus.NewEntry(l)}
}

// NewDefault returns an info-level text logger tagged with a component name.
func NewDefault(component string) *Logger {
	log := New(LoggingConfig{Level: "info"})
	return log.WithField("component", component)
}

func resolveOutput(output string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return os.Stdout
		}
		return f
	}
}

// WithField returns a logger with an extra structured field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with several extra fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError attaches an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(args ...any)                 { l.entry.Debug(args...) }
func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(args ...any)                  { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...any)                  { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...any)                 { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
