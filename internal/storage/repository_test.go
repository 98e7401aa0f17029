package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
	"vendas/internal/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "vendas.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func day(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDay(s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return d
}

func TestProductRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	id, err := repo.CreateProduct(ctx, core.Product{Name: "Caneca", UnitCost: dec("19.90")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// TEXT columns must preserve the decimal exactly.
	if got.UnitCost.String() != "19.9" {
		t.Fatalf("expected 19.9, got %s", got.UnitCost)
	}

	if _, err := repo.CreateProduct(ctx, core.Product{Name: "Caneca", UnitCost: dec("1")}); !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if _, err := repo.GetProduct(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got.UnitCost = dec("21.37")
	if err := repo.UpdateProduct(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	missing := got
	missing.ID = 999
	if err := repo.UpdateProduct(ctx, missing); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProductsOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	for _, name := range []string{"Quadro", "Almofada", "Caneca"} {
		if _, err := repo.CreateProduct(ctx, core.Product{Name: name, UnitCost: dec("1")}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	list, err := repo.ListProducts(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("unexpected list: %d err=%v", len(list), err)
	}
	if list[0].Name != "Almofada" || list[2].Name != "Quadro" {
		t.Fatalf("expected name order, got %s .. %s", list[0].Name, list[2].Name)
	}
}

func TestSaleDateUniqueDay(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.CreateSaleDate(ctx, core.SaleDate{Day: day(t, "2025-03-01")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateSaleDate(ctx, core.SaleDate{Day: day(t, "2025-03-01")}); !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func seedSale(t *testing.T, repo *SQLiteRepository) (productID, dateID, saleID int64) {
	t.Helper()
	ctx := context.Background()
	var err error
	productID, err = repo.CreateProduct(ctx, core.Product{Name: "Caneca", UnitCost: dec("20.00")})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	dateID, err = repo.CreateSaleDate(ctx, core.SaleDate{Day: day(t, "2025-03-01")})
	if err != nil {
		t.Fatalf("create date: %v", err)
	}
	saleID, err = repo.CreateSale(ctx, core.Sale{
		DateID:      dateID,
		ProductID:   productID,
		Quantity:    10,
		UnitPrice:   dec("50.00"),
		Marketplace: "shopee",
		Fees:        core.DefaultFees(),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return productID, dateID, saleID
}

func TestSaleRoundTripAndTotals(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, _, saleID := seedSale(t, repo)

	row, err := repo.GetSale(ctx, saleID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.ProductName != "Caneca" || row.Day.String() != "2025-03-01" || row.Marketplace != "shopee" {
		t.Fatalf("join missing fields: %+v", row)
	}
	if row.CreatedAt.IsZero() {
		t.Fatalf("expected created at to be stamped")
	}
	// The snapshot and the derived figures must survive the round trip.
	if !row.Fees.VariableRate.Equal(dec("0.20")) || !row.Fees.FixedFeePerUnit.Equal(dec("4.00")) {
		t.Fatalf("fee snapshot lost: %+v", row.Fees)
	}
	totals := row.Totals()
	if !totals.GrossRevenue.Equal(dec("500.00")) || !totals.TotalFees.Equal(dec("185.00")) ||
		!totals.TotalCost.Equal(dec("200.00")) || !totals.Profit.Equal(dec("115.00")) {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestCreateSaleMissingReferences(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	productID, dateID, _ := seedSale(t, repo)

	sale := core.Sale{DateID: dateID, ProductID: 999, Quantity: 1, UnitPrice: dec("1"), Fees: core.DefaultFees()}
	if _, err := repo.CreateSale(ctx, sale); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing product, got %v", err)
	}
	sale = core.Sale{DateID: 999, ProductID: productID, Quantity: 1, UnitPrice: dec("1"), Fees: core.DefaultFees()}
	if _, err := repo.CreateSale(ctx, sale); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing date, got %v", err)
	}
}

func TestDeleteRestrictAndCascade(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	productID, dateID, _ := seedSale(t, repo)

	if err := repo.DeleteProduct(ctx, productID, false); !errors.Is(err, core.ErrReferentialIntegrity) {
		t.Fatalf("expected ErrReferentialIntegrity, got %v", err)
	}
	if err := repo.DeleteSaleDate(ctx, dateID, false); !errors.Is(err, core.ErrReferentialIntegrity) {
		t.Fatalf("expected ErrReferentialIntegrity, got %v", err)
	}

	if err := repo.DeleteProduct(ctx, productID, true); err != nil {
		t.Fatalf("cascade delete product: %v", err)
	}
	rows, err := repo.ListSales(ctx, ledger.SaleFilter{})
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected no sales after cascade, got %d err=%v", len(rows), err)
	}
	// Date no longer referenced, plain delete must pass now.
	if err := repo.DeleteSaleDate(ctx, dateID, false); err != nil {
		t.Fatalf("delete date: %v", err)
	}
	if err := repo.DeleteProduct(ctx, productID, false); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSalesFilters(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	caneca, _ := repo.CreateProduct(ctx, core.Product{Name: "Caneca", UnitCost: dec("5")})
	camiseta, _ := repo.CreateProduct(ctx, core.Product{Name: "Camiseta", UnitCost: dec("8")})
	march1, _ := repo.CreateSaleDate(ctx, core.SaleDate{Day: day(t, "2025-03-01")})
	march5, _ := repo.CreateSaleDate(ctx, core.SaleDate{Day: day(t, "2025-03-05")})
	april2, _ := repo.CreateSaleDate(ctx, core.SaleDate{Day: day(t, "2025-04-02")})

	mk := func(dateID, productID int64, marketplace string) {
		t.Helper()
		_, err := repo.CreateSale(ctx, core.Sale{
			DateID: dateID, ProductID: productID, Quantity: 2,
			UnitPrice: dec("10.00"), Marketplace: marketplace, Fees: core.DefaultFees(),
		})
		if err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}
	mk(march5, caneca, "shopee")
	mk(march1, caneca, "meli")
	mk(april2, camiseta, "shopee")

	all, err := repo.ListSales(ctx, ledger.SaleFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("unexpected list: %d err=%v", len(all), err)
	}
	if all[0].Day.String() != "2025-03-01" || all[2].Day.String() != "2025-04-02" {
		t.Fatalf("unexpected order: %s .. %s", all[0].Day, all[2].Day)
	}

	cases := []struct {
		name   string
		filter ledger.SaleFilter
		want   int
	}{
		{"by product", ledger.SaleFilter{ProductID: caneca}, 2},
		{"by marketplace", ledger.SaleFilter{Marketplace: "shopee"}, 2},
		{"by range", ledger.SaleFilter{From: day(t, "2025-03-01"), To: day(t, "2025-03-31")}, 2},
		{"by month", ledger.SaleFilter{Year: 2025, Month: 4}, 1},
		{"by year", ledger.SaleFilter{Year: 2025}, 3},
		{"empty month", ledger.SaleFilter{Year: 2024, Month: 1}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := repo.ListSales(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(rows) != tc.want {
				t.Fatalf("expected %d rows, got %d", tc.want, len(rows))
			}
		})
	}
}

func TestPendingMirrorFlow(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, _, saleID := seedSale(t, repo)

	pending, err := repo.PendingMirrorSales(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != saleID {
		t.Fatalf("unexpected pending: %+v err=%v", pending, err)
	}
	if pending[0].Version != 1 {
		t.Fatalf("expected version 1, got %d", pending[0].Version)
	}

	if err := repo.MarkMirrorError(ctx, saleID); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	// An error keeps the row pending.
	if pending, _ = repo.PendingMirrorSales(ctx, 10); len(pending) != 1 {
		t.Fatalf("expected row still pending, got %d", len(pending))
	}

	if err := repo.MarkMirrored(ctx, saleID); err != nil {
		t.Fatalf("mark mirrored: %v", err)
	}
	if pending, _ = repo.PendingMirrorSales(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}
}

func TestDeleteSale(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, _, saleID := seedSale(t, repo)

	if err := repo.DeleteSale(ctx, saleID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteSale(ctx, saleID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
