package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if _, err := s.ledger.ListProjects(ctx); err != nil {
		checks["repository"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["repository"] = "ok"
	}

	if s.workbookCache != nil {
		checks["workbook_cache"] = map[string]any{
			"entries": s.workbookCache.Size(),
			"status":  "ok",
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	paymentsSaved := atomic.LoadInt64(&s.appMetrics.paymentsSaved)
	exports := atomic.LoadInt64(&s.appMetrics.exports)
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP payments_saved_total Total number of payments saved\n")
	fmt.Fprintf(w, "# TYPE payments_saved_total counter\n")
	fmt.Fprintf(w, "payments_saved_total %d\n\n", paymentsSaved)

	fmt.Fprintf(w, "# HELP exports_total Total number of rendered downloads\n")
	fmt.Fprintf(w, "# TYPE exports_total counter\n")
	fmt.Fprintf(w, "exports_total %d\n\n", exports)

	if s.workbookCache != nil {
		hits, misses := s.workbookCache.Stats()
		fmt.Fprintf(w, "# HELP workbook_cache_hits_total Total workbook cache hits\n")
		fmt.Fprintf(w, "# TYPE workbook_cache_hits_total counter\n")
		fmt.Fprintf(w, "workbook_cache_hits_total %d\n\n", hits)

		fmt.Fprintf(w, "# HELP workbook_cache_misses_total Total workbook cache misses\n")
		fmt.Fprintf(w, "# TYPE workbook_cache_misses_total counter\n")
		fmt.Fprintf(w, "workbook_cache_misses_total %d\n\n", misses)

		fmt.Fprintf(w, "# HELP workbook_cache_entries Current workbook cache entries\n")
		fmt.Fprintf(w, "# TYPE workbook_cache_entries gauge\n")
		fmt.Fprintf(w, "workbook_cache_entries %d\n\n", s.workbookCache.Size())
	}

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Total rate limited requests\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total %d\n\n", rateLimitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}
