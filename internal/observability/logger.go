package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alanzhou93/substorm-detection/internal/config"
)

// NewLogger builds the process-wide logger from config. Logs go to stderr so
// they interleave cleanly with progress output on stdout. Format "json" suits
// captured runs; anything else gets the text handler.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
