package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentApp})

	l.WithComponent(ComponentLedger).Info("saved")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "msg=saved") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Errorf("component logged more than once: %q", out)
	}
}

func TestWithKeepsAttributesAcrossComponents(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentHTTP}).
		With(FieldRequestID, "r-1").
		WithComponent(ComponentExport)

	l.Info("rendered")

	out := buf.String()
	if !strings.Contains(out, "request_id=r-1") || !strings.Contains(out, "component=export") {
		t.Errorf("unexpected output %q", out)
	}
	if l.Component() != ComponentExport {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithControl("p1", "c1").
		WithOperation(OpAggregate).
		WithError(errors.New("boom"))

	if f[FieldProjectID] != "p1" || f[FieldControlID] != "c1" {
		t.Errorf("control fields missing: %v", f)
	}
	if f[FieldOperation] != OpAggregate {
		t.Errorf("operation missing: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Errorf("ToSlice length %d, want %d", len(f.ToSlice()), 2*len(f))
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a default logger")
	}

	l := New(Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	if got := FromContext(IntoContext(context.Background(), l)); got != l {
		t.Error("logger not returned from context")
	}
}

func TestLogProjectPublished(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentWorker})

	NewStructuredLogger(l).LogProjectPublished(context.Background(), "p1", 7, 4, 1500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"project_id=p1", "version=7", "sheets=4", "duration_ms=1500", "operation=publish"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
