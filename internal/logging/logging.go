package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	envLevel = "TRANSPIPE_LOG_LEVEL"
	envJSON  = "TRANSPIPE_LOG_JSON"
)

type Options struct {
	Level string
	JSON  bool
	// Writer defaults to stderr; stdout carries transformed code in the CLI.
	Writer io.Writer
}

var def atomic.Value

func init() {
	Configure(Options{})
}

func Configure(opts Options) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	cfg := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, cfg)
	} else {
		h = slog.NewTextHandler(w, cfg)
	}
	def.Store(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// Component returns the process logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// InitFromEnv configures the process logger from TRANSPIPE_LOG_LEVEL and
// TRANSPIPE_LOG_JSON. An explicit level wins over the environment.
func InitFromEnv(level string) {
	if level == "" {
		level = os.Getenv(envLevel)
	}
	json := false
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(envJSON))); err == nil {
		json = b
	}
	Configure(Options{Level: level, JSON: json})
}
