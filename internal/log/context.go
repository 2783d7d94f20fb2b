package log

import (
	"context"
	"log/slog"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the request logger
const LoggerContextKey ContextKey = "logger"

// IntoContext returns a copy of ctx carrying logger.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the logger stored in ctx, or one wrapping the slog
// default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return scoped(slog.Default(), "")
}
