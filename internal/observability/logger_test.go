package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanzhou93/substorm-detection/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		debugEnabled bool
		warnEnabled  bool
	}{
		{"debug", "debug", true, true},
		{"info default", "info", false, true},
		{"warn", "warn", false, true},
		{"error", "error", false, false},
		{"unknown falls back to info", "chatty", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "text"})

			ctx := context.Background()
			assert.Equal(t, tt.debugEnabled, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warnEnabled, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestNewLogger_Formats(t *testing.T) {
	jsonLogger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "json"})
	_, isJSON := jsonLogger.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)

	textLogger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "text"})
	_, isText := textLogger.Handler().(*slog.TextHandler)
	assert.True(t, isText)
}
