package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saa/internal/cache"
	"saa/internal/core"
	"saa/internal/export"
	"saa/internal/middleware/ratelimit"
	"saa/internal/services"
	"saa/internal/statement"
	"saa/internal/storage"
)

func newTestServer(t *testing.T, limit ratelimit.Config) *Server {
	t.Helper()
	repo := storage.NewMemoryRepository()
	workbooks := cache.NewLRUCache[[]byte](8, time.Minute)
	srv := NewServer(Config{
		Addr:          ":0",
		Ledger:        services.NewLedgerService(repo, nil),
		Exports:       services.NewExportService(repo, workbooks),
		RateLimit:     limit,
		WorkbookCache: workbooks,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(method, path, r))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, ratelimit.Config{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s missing security headers", path)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing request id", path)
		}
	}
}

func TestLedgerWorkflow(t *testing.T) {
	srv := newTestServer(t, ratelimit.Config{})

	rr := do(t, srv, http.MethodPost, "/projects", `{"title":"Projeto Água","bank":"001","branch":"1234","account":"5678-9"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create project status=%d body=%s", rr.Code, rr.Body)
	}
	project := decode[core.Project](t, rr)

	rr = do(t, srv, http.MethodPost, "/projects/"+project.ID+"/controls", `{"name":"Maio 2024"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add control status=%d body=%s", rr.Code, rr.Body)
	}
	control := decode[core.MonthlyControl](t, rr)
	base := "/projects/" + project.ID + "/controls/" + control.ID

	// Empty control exports are refused with the advisory message.
	rr = do(t, srv, http.MethodGet, base+"/payments.csv", "")
	if rr.Code != http.StatusConflict || !strings.Contains(rr.Body.String(), "não há pagamentos") {
		t.Fatalf("empty csv status=%d body=%s", rr.Code, rr.Body)
	}

	rr = do(t, srv, http.MethodPost, base+"/payments", `{"amount":"100.50","category":"Material","dueDate":"2024-05-10","supplierName":"ACME","supplierTaxId":"12.345.678/0001-90"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save payment status=%d body=%s", rr.Code, rr.Body)
	}
	payment := decode[core.Payment](t, rr)
	if payment.ID == "" {
		t.Fatal("saved payment has no id")
	}

	rr = do(t, srv, http.MethodPost, base+"/payments", `{"amount":"7.5","category":"Taxas Bancarias","dueDate":"2024-05-20"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save fee status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, base+"/financials", `{"priorBalance":"1000","installmentReceived":"500","bankFees":"999"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("save financials status=%d body=%s", rr.Code, rr.Body)
	}
	control = decode[core.MonthlyControl](t, rr)
	if control.Financials.BankFees != "7.5" {
		t.Errorf("bank fees = %q, want derived 7.5", control.Financials.BankFees)
	}
	if control.Financials.PeriodFrom != "2024-05-10" || control.Financials.PeriodTo != "2024-05-20" {
		t.Errorf("period = %s..%s", control.Financials.PeriodFrom, control.Financials.PeriodTo)
	}

	rr = do(t, srv, http.MethodGet, base+"/statement", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("statement status=%d", rr.Code)
	}
	st := decode[statement.Statement](t, rr)
	if !st.Totals.TotalExpenses.Equal(decimal.RequireFromString("108")) {
		t.Errorf("total expenses = %s", st.Totals.TotalExpenses)
	}
	if len(st.Ordinary) != 1 {
		t.Errorf("ordinary payments = %d, want 1", len(st.Ordinary))
	}

	rr = do(t, srv, http.MethodGet, base+"/payments.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("csv status=%d", rr.Code)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), export.BOM) {
		t.Error("csv download missing BOM")
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	csvBody := rr.Body.String()

	rr = do(t, srv, http.MethodGet, "/projects/"+project.ID+"/workbook.xlsx", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("workbook status=%d body=%s", rr.Code, rr.Body)
	}
	if rr.Header().Get("Content-Type") != export.ContentTypeXLSX || !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("workbook is not an xlsx container")
	}

	rr = do(t, srv, http.MethodGet, base+"/payments/"+payment.ID+"/fields", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("fields status=%d", rr.Code)
	}
	fields := decode[map[string]string](t, rr)
	if fields["nomeFornecedor"] != "ACME" || fields["dataVencimentoBR"] != "10/05/2024" {
		t.Errorf("unexpected fields %v", fields)
	}

	rr = do(t, srv, http.MethodGet, "/suppliers", "")
	suppliers := decode[[]core.Supplier](t, rr)
	if len(suppliers) != 1 || suppliers[0].Name != "ACME" {
		t.Errorf("supplier registry = %+v", suppliers)
	}

	rr = do(t, srv, http.MethodPut, base+"/payments/"+payment.ID, `{"amount":"200","category":"Material"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update payment status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, base+"/payments/import", csvBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body)
	}
	control = decode[core.MonthlyControl](t, rr)
	if len(control.Payments) != 4 {
		t.Errorf("payments after import = %d, want 4", len(control.Payments))
	}

	rr = do(t, srv, http.MethodDelete, base+"/payments/"+payment.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete payment status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, base+"/payments/"+payment.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/projects/"+project.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete project status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/metrics", "")
	if !strings.Contains(rr.Body.String(), "payments_saved_total 3") {
		t.Errorf("metrics missing payment count:\n%s", rr.Body)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, ratelimit.Config{})

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"missing project", http.MethodGet, "/projects/nope", "", http.StatusNotFound},
		{"missing control", http.MethodGet, "/projects/nope/controls/x/statement", "", http.StatusNotFound},
		{"blank title", http.MethodPost, "/projects", `{"title":"  "}`, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/projects", `{"title":`, http.StatusBadRequest},
		{"bad import", http.MethodPost, "/projects/nope/controls/x/payments/import", "a,b\n1,2", http.StatusUnprocessableEntity},
		{"wrong method", http.MethodPatch, "/projects", "", http.StatusMethodNotAllowed},
		{"probe", http.MethodGet, "/.env", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != tt.wantCode {
				t.Errorf("status=%d, want %d (body %s)", rr.Code, tt.wantCode, rr.Body)
			}
		})
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := newTestServer(t, ratelimit.Config{Requests: 1, Window: time.Minute})

	if rr := do(t, srv, http.MethodPost, "/projects", `{"title":"A"}`); rr.Code != http.StatusCreated {
		t.Fatalf("first post status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/projects", `{"title":"B"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second post status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	for range 3 {
		if rr := do(t, srv, http.MethodGet, "/projects", ""); rr.Code != http.StatusOK {
			t.Fatalf("reads must not be limited, status=%d", rr.Code)
		}
	}
}
