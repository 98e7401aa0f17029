package http

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
	"vendas/internal/ledger/memory"
)

// seedTwoProductsSameDay stores two products sold on 2026-03-10:
// 10x Caneca at R$50,00 (cost R$20,00) and 5x Camiseta at R$80,00
// (cost R$30,00), both under the default fees.
func seedTwoProductsSameDay(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	canecaID, dateID := seedCatalog(t, store)

	camisetaID, err := store.CreateProduct(ctx, core.Product{
		Name:     "Camiseta",
		UnitCost: decimal.RequireFromString("30.00"),
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	sales := []core.Sale{
		{DateID: dateID, ProductID: canecaID, Quantity: 10, UnitPrice: decimal.RequireFromString("50.00"), Fees: core.DefaultFees()},
		{DateID: dateID, ProductID: camisetaID, Quantity: 5, UnitPrice: decimal.RequireFromString("80.00"), Fees: core.DefaultFees()},
	}
	for _, sale := range sales {
		if _, err := store.CreateSale(ctx, sale); err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}
}

func TestSummaryPartialGroupsByDate(t *testing.T) {
	srv, store := newTestServer(t)
	seedTwoProductsSameDay(t, store)

	rr := get(t, srv, "/ui/summary")
	if rr.Code != 200 {
		t.Fatalf("summary status=%d", rr.Code)
	}
	body := rr.Body.String()

	// One bucket for the single day: gross 500+400, profit 115+114
	if !strings.Contains(body, "2026-03-10") {
		t.Errorf("summary missing day bucket:\n%s", body)
	}
	if !strings.Contains(body, "R$ 900,00") {
		t.Errorf("summary missing combined gross:\n%s", body)
	}
	if !strings.Contains(body, "R$ 229,00") {
		t.Errorf("summary missing combined profit:\n%s", body)
	}
	// Product names only show in the per-product grouping
	if strings.Contains(body, "<td>Caneca</td>") {
		t.Errorf("date grouping should not list products:\n%s", body)
	}
}

func TestSummaryPartialGroupsByDateAndProduct(t *testing.T) {
	srv, store := newTestServer(t)
	seedTwoProductsSameDay(t, store)

	rr := get(t, srv, "/ui/summary?group=product")
	if rr.Code != 200 {
		t.Fatalf("summary status=%d", rr.Code)
	}
	body := rr.Body.String()

	for _, want := range []string{"Caneca", "Camiseta", "R$ 500,00", "R$ 400,00"} {
		if !strings.Contains(body, want) {
			t.Errorf("product grouping missing %q:\n%s", want, body)
		}
	}
}

func TestSummaryPartialHonorsDateRange(t *testing.T) {
	srv, store := newTestServer(t)
	seedTwoProductsSameDay(t, store)

	rr := get(t, srv, "/ui/summary?from=2026-04-01&to=2026-04-30")
	if rr.Code != 200 {
		t.Fatalf("summary status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "2026-03-10") {
		t.Errorf("summary should exclude sales outside the range:\n%s", rr.Body.String())
	}
}

func TestReportPartialValidatesMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/ui/report?year=2026&month=13")
	if rr.Code != 422 {
		t.Fatalf("expected 422 for month 13, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Mês deve estar entre 1 e 12") {
		t.Errorf("expected month message, got %s", rr.Body.String())
	}
}

func TestReportPartialRankingAndTotals(t *testing.T) {
	srv, store := newTestServer(t)
	seedTwoProductsSameDay(t, store)

	rr := get(t, srv, "/ui/report?year=2026&month=3")
	if rr.Code != 200 {
		t.Fatalf("report status=%d", rr.Code)
	}
	body := rr.Body.String()

	// Caneca leads the ranking on gross revenue (500 vs 400)
	for _, want := range []string{"Caneca", "Camiseta", "R$ 900,00"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q:\n%s", want, body)
		}
	}
	canecaAt := strings.Index(body, "Caneca")
	camisetaAt := strings.Index(body, "Camiseta")
	if canecaAt > camisetaAt {
		t.Errorf("ranking order wrong: Caneca at %d, Camiseta at %d", canecaAt, camisetaAt)
	}
}

func TestReportPartialEmptyMonth(t *testing.T) {
	srv, store := newTestServer(t)
	seedTwoProductsSameDay(t, store)

	rr := get(t, srv, "/ui/report?year=2026&month=7")
	if rr.Code != 200 {
		t.Fatalf("report status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "2026-03-10") {
		t.Errorf("other months must not leak into the report:\n%s", rr.Body.String())
	}
}
