// Package ledger defines the storage ports the rest of the application
// talks to. internal/ledger/memory keeps everything in process memory,
// internal/storage persists to SQLite.
package ledger

import (
	"context"

	"vendas/internal/core"
)

// SaleFilter narrows ListSales. Zero fields mean no constraint.
type SaleFilter struct {
	ProductID   int64
	Marketplace string
	From        core.Date
	To          core.Date
	Year        int
	Month       int // 1-12, only meaningful together with Year
}

// Ports for outbound adapters.
type (
	ProductStore interface {
		CreateProduct(ctx context.Context, p core.Product) (int64, error)
		ListProducts(ctx context.Context) ([]core.Product, error)
		GetProduct(ctx context.Context, id int64) (core.Product, error)
		UpdateProduct(ctx context.Context, p core.Product) error
		// DeleteProduct fails with core.ErrReferentialIntegrity while sales
		// reference the product. With cascade the dependent sales go too.
		DeleteProduct(ctx context.Context, id int64, cascade bool) error
	}

	SaleDateStore interface {
		CreateSaleDate(ctx context.Context, d core.SaleDate) (int64, error)
		ListSaleDates(ctx context.Context) ([]core.SaleDate, error)
		GetSaleDate(ctx context.Context, id int64) (core.SaleDate, error)
		DeleteSaleDate(ctx context.Context, id int64, cascade bool) error
	}

	SaleStore interface {
		// CreateSale verifies both referenced rows exist and stamps the
		// creation time. The fee snapshot arrives already set on the sale.
		CreateSale(ctx context.Context, s core.Sale) (int64, error)
		// ListSales returns joined rows ordered by day ascending, then id.
		ListSales(ctx context.Context, f SaleFilter) ([]core.SaleRow, error)
		GetSale(ctx context.Context, id int64) (core.SaleRow, error)
		DeleteSale(ctx context.Context, id int64) error
	}

	// Store is the full storage surface the HTTP server runs on.
	Store interface {
		ProductStore
		SaleDateStore
		SaleStore
	}
)
