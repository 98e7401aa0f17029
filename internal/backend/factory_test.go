package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"vendas/internal/core"

	"github.com/shopspring/decimal"
)

func TestBackendType_IsValid(t *testing.T) {
	tests := []struct {
		bt    BackendType
		valid bool
	}{
		{SQLiteBackend, true},
		{MemoryBackend, true},
		{BackendType("sheets"), false},
		{BackendType(""), false},
	}

	for _, tt := range tests {
		if got := tt.bt.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.bt, got, tt.valid)
		}
	}
}

func TestCreateBackend_InvalidType(t *testing.T) {
	factory := NewFactory(nil)

	_, err := factory.CreateBackend(context.Background(), Config{Type: "sheets"})
	if err == nil {
		t.Fatal("expected error for invalid backend type")
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	factory := NewFactory(nil)
	ctx := context.Background()

	result, err := factory.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if result.Cleanup != nil {
		t.Error("memory backend should not need cleanup")
	}

	id, err := result.Backend.CreateProduct(ctx, core.Product{Name: "Caneca", UnitCost: decimal.RequireFromString("20.00")})
	if err != nil {
		t.Fatalf("CreateProduct via memory backend: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	factory := NewFactory(nil)
	ctx := context.Background()

	result, err := factory.CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "vendas.db"),
		// No AMQP URL: mirror sync stays off, writes must still work
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if result.Cleanup == nil {
		t.Fatal("sqlite backend must provide cleanup")
	}
	defer result.Cleanup()

	b := result.Backend
	productID, err := b.CreateProduct(ctx, core.Product{Name: "Caneca", UnitCost: decimal.RequireFromString("20.00")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	dateID, err := b.CreateSaleDate(ctx, core.SaleDate{Day: core.NewDate(2026, 3, 15)})
	if err != nil {
		t.Fatalf("CreateSaleDate: %v", err)
	}

	saleID, err := b.CreateSale(ctx, core.Sale{
		DateID:    dateID,
		ProductID: productID,
		Quantity:  10,
		UnitPrice: decimal.RequireFromString("50.00"),
		Fees:      core.DefaultFees(),
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	row, err := b.GetSale(ctx, saleID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if row.ProductName != "Caneca" {
		t.Errorf("joined product name = %q, want Caneca", row.ProductName)
	}

	if err := b.DeleteSale(ctx, saleID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if _, err := b.GetSale(ctx, saleID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
