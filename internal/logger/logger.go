package logger

import (
	"log/slog"
	"os"

	"github.com/polkiloo/smmpanel/internal/config"
)

// New creates a JSON slog.Logger at the configured level. Unknown levels fall back to info.
func New(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			level = slog.LevelInfo
		}
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
