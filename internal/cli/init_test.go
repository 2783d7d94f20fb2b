package cli

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLoggerLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("warn")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info must be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn must be enabled")
	}
	if slog.Default().Handler() != logger.Handler() {
		t.Error("logger not installed as default")
	}
}
