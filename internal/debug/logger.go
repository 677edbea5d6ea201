// Package debug provides the structured logger the compiler, shaper,
// and CLI share, built on log/slog.
package debug

import (
	"log/slog"
	"os"
	"sync"
)

// Format selects the slog handler used when logging is enabled.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

var (
	logger  *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	enabled bool
	mu      sync.RWMutex
)

// Init configures the global logger. With enable false, logs are
// discarded by raising the handler's level above any real log call
// rather than by branching at every call site.
func Init(enable bool, format Format) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable

	level := slog.LevelDebug
	if !enable {
		level = slog.LevelError + 1
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger = slog.New(handler)
}

// Enabled reports whether debug logging is currently enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a logger scoped with the given attributes, e.g.
// debug.With("component", "compiler", "model", modelName).
func With(args ...any) *slog.Logger { return current().With(args...) }

// Logger returns the underlying slog.Logger.
func Logger() *slog.Logger { return current() }
