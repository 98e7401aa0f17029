package memory

import (
	"context"
	"errors"
	"testing"

	"vendas/internal/core"

	"github.com/shopspring/decimal"
)

func saleRow(id int64, product string) core.SaleRow {
	return core.SaleRow{
		Sale: core.Sale{
			ID:        id,
			DateID:    1,
			ProductID: 1,
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("50.00"),
			Fees:      core.DefaultFees(),
		},
		Day:         core.NewDate(2026, 3, 15),
		ProductName: product,
		UnitCost:    decimal.RequireFromString("20.00"),
	}
}

func TestAppendAndRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, saleRow(1, "Caneca"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	ref, err = s.Append(ctx, saleRow(2, "Camiseta"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:2" {
		t.Errorf("ref = %q, want mem:2", ref)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ProductName != "Caneca" || rows[1].ProductName != "Camiseta" {
		t.Errorf("rows out of order: %q, %q", rows[0].ProductName, rows[1].ProductName)
	}
}

func TestAppendRejectsInvalidSale(t *testing.T) {
	s := New()

	row := saleRow(1, "Caneca")
	row.Quantity = 0

	if _, err := s.Append(context.Background(), row); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if len(s.Rows()) != 0 {
		t.Error("invalid sale must not be stored")
	}
}

func TestRowsReturnsCopy(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), saleRow(1, "Caneca")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows := s.Rows()
	rows[0].ProductName = "changed"

	if s.Rows()[0].ProductName != "Caneca" {
		t.Error("Rows must return a copy, not the backing slice")
	}
}
