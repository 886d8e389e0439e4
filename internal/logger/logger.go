package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"alumni-portal/internal/config"
)

var (
	singleton *slog.Logger
	once      sync.Once
)

// Init builds the process-wide logger from cfg. The first call wins;
// later calls return the same instance regardless of cfg.
func Init(cfg config.Config) (*slog.Logger, error) {
	once.Do(func() {
		singleton = slog.New(newHandler(os.Stdout, cfg)).
			With("service", "alumni-portal", "env", cfg.AppEnv)
		slog.SetDefault(singleton)
	})

	return singleton, nil
}

// L returns the process-wide logger, falling back to slog.Default before Init.
func L() *slog.Logger {
	if singleton == nil {
		return slog.Default()
	}
	return singleton
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func newHandler(w io.Writer, cfg config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
