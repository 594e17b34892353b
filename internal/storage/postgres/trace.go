package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/tracelog"
)

// slogTracer forwards pgx query traces to slog.
type slogTracer struct {
	logger *slog.Logger
}

func newSlogTracer(l *slog.Logger) *slogTracer {
	if l == nil {
		l = slog.Default()
	}
	return &slogTracer{logger: l}
}

func (t *slogTracer) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	attrs := []any{
		slog.Any("sql", data["sql"]),
		slog.Any("time", data["time"]),
	}
	if err, ok := data["err"]; ok {
		attrs = append(attrs, slog.Any("error", err))
	}

	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		t.logger.DebugContext(ctx, msg, attrs...)
	case tracelog.LogLevelInfo:
		t.logger.InfoContext(ctx, msg, attrs...)
	case tracelog.LogLevelWarn:
		t.logger.WarnContext(ctx, msg, attrs...)
	default:
		t.logger.ErrorContext(ctx, msg, attrs...)
	}
}
