package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, requests int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{Requests: requests, Window: time.Minute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiterAllow(t *testing.T) {
	rl, now := newTestLimiter(t, 2)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request must be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are not affected")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("a new window must reset the counter")
	}

	if m := rl.GetMetrics(); m.Rejected != 1 || m.ClientCount != 2 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestLimiterRetryAfterAndCleanup(t *testing.T) {
	rl, now := newTestLimiter(t, 1)
	rl.Allow("a")

	*now = now.Add(20 * time.Second)
	if got := rl.RetryAfter("a"); got != 40 {
		t.Errorf("RetryAfter = %d, want 40", got)
	}
	if got := rl.RetryAfter("unknown"); got != 0 {
		t.Errorf("RetryAfter unknown = %d, want 0", got)
	}

	*now = now.Add(time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("cleanup removed %d, want 1", removed)
	}
}

func TestLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "k" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first request status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rr.Header().Get("Retry-After"))
	}
}

func TestLimiterStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
