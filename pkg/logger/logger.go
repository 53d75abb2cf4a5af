// Package logger provides structured logging utilities.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ParseLevel parses a string into a slog level. Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type options struct {
	format  string
	noColor bool
}

// Option configures a Logger.
type Option func(*options)

// WithFormat selects the output format: "json" (default) or "text".
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = strings.ToLower(format)
	}
}

// WithoutColor disables ANSI colors in text output.
func WithoutColor() Option {
	return func(o *options) {
		o.noColor = true
	}
}

// Logger is a structured logger backed by log/slog.
type Logger struct {
	s *slog.Logger
}

// New creates a new Logger with the specified output and level.
func New(output io.Writer, level string, opts ...Option) *Logger {
	if output == nil {
		output = os.Stdout
	}

	o := options{format: FormatJSON}
	for _, opt := range opts {
		opt(&o)
	}

	lvl := ParseLevel(level)

	var h slog.Handler
	switch o.format {
	case FormatText:
		noColor := o.noColor || (output != os.Stdout && output != os.Stderr)
		h = tint.NewHandler(output, &tint.Options{
			Level:      lvl,
			TimeFormat: time.DateTime,
			NoColor:    noColor,
		})
	default:
		h = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: lvl})
	}

	return &Logger{s: slog.New(h)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{s: slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// Slog exposes the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.s
}

// With returns a new Logger with additional fields.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{s: l.s.With(attrs(keyvals)...)}
}

// Enabled reports whether level would be written.
func (l *Logger) Enabled(level slog.Level) bool {
	return l.s.Enabled(context.Background(), level)
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.s.Debug(msg, attrs(keyvals)...)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.s.Info(msg, attrs(keyvals)...)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.s.Warn(msg, attrs(keyvals)...)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.s.Error(msg, attrs(keyvals)...)
}

// attrs converts key/value pairs to attributes, skipping pairs whose key is
// not a string and a trailing key without a value.
func attrs(keyvals []any) []any {
	out := make([]any, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		if err, ok := keyvals[i+1].(error); ok {
			out = append(out, slog.String(key, err.Error()))
			continue
		}
		out = append(out, slog.Any(key, keyvals[i+1]))
	}
	return out
}
