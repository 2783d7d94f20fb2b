package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "saa/internal/log"
	"saa/internal/middleware/ratelimit"
	"saa/internal/middleware/security"
	"saa/internal/middleware/trace"
	"saa/internal/services"
)

// CacheStats is the view of the workbook cache exposed on /metrics.
type CacheStats interface {
	Size() int
	Stats() (hits, misses int64)
}

// Config wires the server to its services.
type Config struct {
	Addr           string
	Ledger         *services.LedgerService
	Exports        *services.ExportService
	Logger         *applog.Logger
	RateLimit      ratelimit.Config
	TrustedProxies []string
	WorkbookCache  CacheStats
}

// Server serves the ledger JSON API and report downloads.
type Server struct {
	http.Server
	ledger  *services.LedgerService
	exports *services.ExportService
	logger  *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	workbookCache    CacheStats

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	paymentsSaved int64
	exports       int64
	uptime        time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		ledger:           cfg.Ledger,
		exports:          cfg.Exports,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(cfg.RateLimit),
		securityDetector: security.NewDetector(),
		workbookCache:    cfg.WorkbookCache,
		appMetrics:       appMetrics{uptime: time.Now()},
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.securityDetector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.traceMiddleware = trace.NewMiddleware(s.logger, s.securityDetector.ExtractClientIP)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("GET /projects/{id}/workbook.xlsx", s.handleProjectWorkbook)

	mux.HandleFunc("POST /projects/{id}/controls", s.handleAddControl)
	mux.HandleFunc("GET /projects/{id}/controls/{cid}", s.handleGetControl)
	mux.HandleFunc("PUT /projects/{id}/controls/{cid}", s.handleRenameControl)
	mux.HandleFunc("DELETE /projects/{id}/controls/{cid}", s.handleDeleteControl)
	mux.HandleFunc("PUT /projects/{id}/controls/{cid}/financials", s.handleSaveFinancials)
	mux.HandleFunc("GET /projects/{id}/controls/{cid}/statement", s.handleStatement)
	mux.HandleFunc("GET /projects/{id}/controls/{cid}/payments.csv", s.handleControlCSV)

	mux.HandleFunc("POST /projects/{id}/controls/{cid}/payments", s.handleSavePayment)
	mux.HandleFunc("POST /projects/{id}/controls/{cid}/payments/import", s.handleImportPayments)
	mux.HandleFunc("PUT /projects/{id}/controls/{cid}/payments/{pid}", s.handleSavePayment)
	mux.HandleFunc("DELETE /projects/{id}/controls/{cid}/payments/{pid}", s.handleDeletePayment)
	mux.HandleFunc("GET /projects/{id}/controls/{cid}/payments/{pid}/fields", s.handleDocumentFields)

	mux.HandleFunc("GET /suppliers", s.handleListSuppliers)
	mux.HandleFunc("POST /suppliers", s.handleSaveSupplier)
	mux.HandleFunc("PUT /suppliers/{id}", s.handleSaveSupplier)
	mux.HandleFunc("DELETE /suppliers/{id}", s.handleDeleteSupplier)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// middleware applies tracing, security headers, probe rejection and rate
// limiting of mutating requests, outermost first.
func (s *Server) middleware(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "muitas requisições, tente novamente mais tarde").Write(w)
	})(next)

	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request rejected",
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				applog.FieldPath, r.URL.Path)
			BadRequestError("requisição inválida").Write(w)
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.traceMiddleware.Middleware(headers.Middleware(guarded))
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) countExport() {
	atomic.AddInt64(&s.appMetrics.exports, 1)
}
