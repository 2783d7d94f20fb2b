package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"saa/internal/core"
)

// StructuredLogger writes the recurring log events of the service with a
// fixed set of fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request. Client errors log at
// warn and server errors at error level.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogPaymentSaved logs a stored payment
func (sl *StructuredLogger) LogPaymentSaved(ctx context.Context, projectID, controlID string, p core.Payment) {
	fields := NewFields().
		WithControl(projectID, controlID).
		WithPayment(p.ID, p.Category, p.Amount).
		WithOperation(OpUpdate)

	sl.logger.InfoContext(ctx, "Payment saved", fields.ToSlice()...)
}

// LogProjectPublished logs a workbook mirrored to the spreadsheet.
func (sl *StructuredLogger) LogProjectPublished(ctx context.Context, projectID string, version int64, sheets int, elapsed time.Duration) {
	fields := NewFields().
		WithProject(projectID, version).
		WithOperation(OpPublish)
	fields[FieldSheets] = sheets
	fields[FieldDuration] = elapsed.Milliseconds()

	sl.logger.InfoContext(ctx, "Project published", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
