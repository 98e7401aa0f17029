package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
	"vendas/internal/ledger"
	"vendas/internal/ledger/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	srv := NewServer(":0", store, core.DefaultFees())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

// seedCatalog stores one product (unit cost R$20,00) and one sale date.
func seedCatalog(t *testing.T, store *memory.Store) (productID, dateID int64) {
	t.Helper()
	ctx := context.Background()

	productID, err := store.CreateProduct(ctx, core.Product{
		Name:     "Caneca",
		UnitCost: decimal.RequireFromString("20.00"),
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	dateID, err = store.CreateSaleDate(ctx, core.SaleDate{Day: core.NewDate(2026, 3, 10)})
	if err != nil {
		t.Fatalf("seed date: %v", err)
	}
	return productID, dateID
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func saleFilterAll() ledger.SaleFilter {
	return ledger.SaleFilter{}
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/")
	if rr.Code != 200 {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Vendas") {
		t.Fatalf("index body missing heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(t, srv, path)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestIndexUnknownPathIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/does-not-exist")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestReadyReportsChecks(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/readyz")
	if rr.Code != 200 {
		t.Fatalf("readyz status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"status":"ready"`) {
		t.Errorf("readyz missing ready status: %s", body)
	}
	if !strings.Contains(body, `"store":"ok"`) {
		t.Errorf("readyz missing store check: %s", body)
	}
	if !strings.Contains(body, `"templates":"ok"`) {
		t.Errorf("readyz missing template check: %s", body)
	}
}

func TestMetricsExposesCounters(t *testing.T) {
	srv, store := newTestServer(t)
	productID, dateID := seedCatalog(t, store)

	rr := postForm(t, srv, "/sales",
		"date_id="+itoa(dateID)+"&product_id="+itoa(productID)+"&quantity=2&price=10,00")
	if rr.Code != 200 {
		t.Fatalf("sale create status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = get(t, srv, "/metrics")
	if rr.Code != 200 {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"http_requests_total",
		"sales_total 1",
		"cache_hits_total",
		"cache_misses_total",
		"rate_limit_hits_total",
		"uptime_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics missing %q:\n%s", metric, body)
		}
	}
}

func TestStaticAssetsServedWithCacheHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/static/style.css")
	if rr.Code != 200 {
		t.Fatalf("static status=%d", rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age=3600") {
		t.Errorf("Cache-Control = %q, want max-age=3600", cc)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/healthz")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing X-Content-Type-Options header")
	}
	if rr.Header().Get("X-Frame-Options") == "" {
		t.Errorf("missing X-Frame-Options header")
	}
}

// Writes share one per-client window; the 61st mutation within a minute
// must be rejected while reads keep working.
func TestWritesAreRateLimited(t *testing.T) {
	srv, _ := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 61; i++ {
		last = postForm(t, srv, "/products/delete", "id=999999")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", last.Header().Get("Retry-After"))
	}

	rr := get(t, srv, "/ui/products")
	if rr.Code != 200 {
		t.Fatalf("reads should not be rate limited, got %d", rr.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
