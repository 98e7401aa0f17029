package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"vendas/internal/cache"
	"vendas/internal/core"
	"vendas/internal/ledger"
	applog "vendas/internal/log"
	"vendas/internal/middleware/ratelimit"
	"vendas/internal/middleware/security"
	"vendas/internal/middleware/trace"
	appweb "vendas/web"
)

// Server serves the htmx UI and report downloads over a ledger.Store.
type Server struct {
	http.Server
	store     ledger.Store
	templates *template.Template
	logger    *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityHeaders  *security.HeadersMiddleware
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	// Joined sale rows per filter, flushed on every write
	rowsCache    *cache.LRUCache[[]core.SaleRow]
	cacheManager *cache.Manager

	// Fee configuration stamped onto new sales, editable via /fees
	feesMu sync.RWMutex
	fees   core.FeeConfig

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	totalSales int64
	startedAt  time.Time
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. fees is the initial fee configuration stamped
// onto new sales until changed through the settings form.
func NewServer(addr string, store ledger.Store, fees core.FeeConfig) *Server {
	mux := http.NewServeMux()

	detector := security.NewDetector()

	s := &Server{
		store:            store,
		logger:           applog.New(applog.Config{Component: applog.ComponentHTTP}),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		securityHeaders:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		rowsCache:        cache.NewLRUCache[[]core.SaleRow](100, 5*time.Minute),
		cacheManager:     cache.NewManager(),
		fees:             fees,
		appMetrics:       appMetrics{startedAt: time.Now()},
	}
	s.cacheManager.Register(s.rowsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	// Writes go through the rate limiter, reads do not. Partial reloads
	// after a trigger would blow through the limit otherwise.
	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, s.rateLimited)

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/ui/products", s.handleProductsPartial)
	mux.Handle("/products", limit(http.HandlerFunc(s.handleCreateProduct)))
	mux.Handle("/products/delete", limit(http.HandlerFunc(s.handleDeleteProduct)))

	mux.HandleFunc("/ui/dates", s.handleDatesPartial)
	mux.Handle("/dates", limit(http.HandlerFunc(s.handleCreateDate)))
	mux.Handle("/dates/delete", limit(http.HandlerFunc(s.handleDeleteDate)))

	mux.HandleFunc("/ui/sales", s.handleSalesPartial)
	mux.Handle("/sales", limit(http.HandlerFunc(s.handleCreateSale)))
	mux.Handle("/sales/delete", limit(http.HandlerFunc(s.handleDeleteSale)))

	mux.HandleFunc("/ui/fees", s.handleFeesPartial)
	mux.Handle("/fees", limit(http.HandlerFunc(s.handleUpdateFees)))

	mux.HandleFunc("/ui/summary", s.handleSummaryPartial)
	mux.HandleFunc("/ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("/dashboard/series", s.handleDashboardSeries)
	mux.HandleFunc("/ui/report", s.handleReportPartial)

	mux.HandleFunc("/export/summary.csv", s.handleExportSummaryCSV)
	mux.HandleFunc("/export/ranking.csv", s.handleExportRankingCSV)
	mux.HandleFunc("/export/report.xlsx", s.handleExportReportXLSX)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.withMiddleware(mux),
	}

	return s
}

// withMiddleware wraps the mux with tracing, security headers and the
// suspicious-request detector, outermost first.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	observed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", s.securityDetector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})

	return s.traceMiddleware.Middleware(s.securityHeaders.Middleware(observed))
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		"client_ip", s.securityDetector.ExtractClientIP(r),
		"method", r.Method,
		"path", r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// currentFees returns the fee configuration for new sales.
func (s *Server) currentFees() core.FeeConfig {
	s.feesMu.RLock()
	defer s.feesMu.RUnlock()
	return s.fees
}

func (s *Server) setFees(f core.FeeConfig) {
	s.feesMu.Lock()
	s.fees = f
	s.feesMu.Unlock()
}

// loadRows fetches joined sale rows for the filter, caching the result.
func (s *Server) loadRows(ctx context.Context, f ledger.SaleFilter) ([]core.SaleRow, error) {
	key := filterKey(f)
	if rows, found := s.rowsCache.Get(key); found {
		slog.DebugContext(ctx, "Sale rows cache hit", "key", key, "count", len(rows))
		return rows, nil
	}

	// Small timeout so a stuck store never hangs a partial
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	rows, err := s.store.ListSales(cctx, f)
	if err != nil {
		return nil, err
	}

	s.rowsCache.Set(key, rows)
	return rows, nil
}

// flushRows drops every cached listing. Called after any write, since
// all summaries derive from the full sale set.
func (s *Server) flushRows() {
	s.rowsCache.Flush()
}

func (s *Server) saleRecorded() {
	atomic.AddInt64(&s.appMetrics.totalSales, 1)
}

func (s *Server) saleRemoved() {
	atomic.AddInt64(&s.appMetrics.totalSales, -1)
}
