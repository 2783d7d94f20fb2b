package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"saa/internal/core"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"removes control chars", "hel\x00lo\x07", "hello"},
		{"keeps tab and newlines", "a\tb\nc\r", "a\tb\nc"},
		{"keeps accents", "Aplicação Financeira", "Aplicação Financeira"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizePayment(t *testing.T) {
	p := core.Payment{Amount: " 12,50 ", SupplierName: "ACME\x00", PixKey: "\tkey "}
	sanitizePayment(&p)

	if p.Amount != "12,50" || p.SupplierName != "ACME" || p.PixKey != "key" {
		t.Errorf("unexpected payment after sanitize: %+v", p)
	}
}

func TestSanitizePaymentKeepsCategorySpacing(t *testing.T) {
	p := core.Payment{Category: "Estornos \x01"}
	sanitizePayment(&p)

	if p.Category != "Estornos " {
		t.Errorf("sanitizePayment() Category = %q, want %q", p.Category, "Estornos ")
	}
	if core.IsReservedCategory(p.Category) {
		t.Error("a padded tag must not match a reserved category")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantCode int
	}{
		{"valid", `{"name":"Maio"}`, false, 0},
		{"malformed", `{"name":`, true, http.StatusBadRequest},
		{"trailing data", `{"name":"a"} {"name":"b"}`, true, http.StatusBadRequest},
		{"too large", `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, true, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var req controlRequest
			err := decodeJSON(w, r, &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if req.Name != "Maio" {
					t.Errorf("Name = %q", req.Name)
				}
				return
			}

			rr := httptest.NewRecorder()
			decodeFailure(err).Write(rr)
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}
