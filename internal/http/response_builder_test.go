package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"saa/internal/services"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]string{"id": "p1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != contentTypeJSON {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header not set")
	}
	if w.Body.String() != `{"id":"p1"}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Body("text/csv; charset=utf-8", []byte("a,b")).
		Attachment("Projeto_Maio.csv").
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename=Projeto_Maio.csv` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Header().Get("Content-Length") != "3" {
		t.Errorf("Content-Length = %q", w.Header().Get("Content-Length"))
	}
}

func TestResponseBuilder_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().JSON(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", fmt.Errorf("control x: %w", services.ErrNotFound), http.StatusNotFound, "não encontrado"},
		{"invalid input", fmt.Errorf("%w: project title is required", services.ErrInvalidInput), http.StatusUnprocessableEntity, "project title is required"},
		{"no payments", services.ErrNoPayments, http.StatusConflict, "não há pagamentos"},
		{"no controls", services.ErrNoControls, http.StatusConflict, "não há controles"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "erro interno"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ServiceError(tt.err).Write(w)

			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("Body %q missing %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}
