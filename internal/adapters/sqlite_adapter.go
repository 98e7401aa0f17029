package adapters

import (
	"context"

	"vendas/internal/core"
	"vendas/internal/ledger"
	"vendas/internal/services"
	"vendas/internal/storage"
)

// SQLiteAdapter adapts SQLiteRepository and SaleService to the ledger ports.
// Reads go straight to storage; sale writes pass through the service so the
// mirror sync message is published alongside the local write.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.SaleService
}

var _ ledger.Store = (*SQLiteAdapter)(nil)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.SaleService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

func (a *SQLiteAdapter) CreateProduct(ctx context.Context, p core.Product) (int64, error) {
	return a.storage.CreateProduct(ctx, p)
}

func (a *SQLiteAdapter) ListProducts(ctx context.Context) ([]core.Product, error) {
	return a.storage.ListProducts(ctx)
}

func (a *SQLiteAdapter) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	return a.storage.GetProduct(ctx, id)
}

func (a *SQLiteAdapter) UpdateProduct(ctx context.Context, p core.Product) error {
	return a.storage.UpdateProduct(ctx, p)
}

func (a *SQLiteAdapter) DeleteProduct(ctx context.Context, id int64, cascade bool) error {
	return a.storage.DeleteProduct(ctx, id, cascade)
}

func (a *SQLiteAdapter) CreateSaleDate(ctx context.Context, d core.SaleDate) (int64, error) {
	return a.storage.CreateSaleDate(ctx, d)
}

func (a *SQLiteAdapter) ListSaleDates(ctx context.Context) ([]core.SaleDate, error) {
	return a.storage.ListSaleDates(ctx)
}

func (a *SQLiteAdapter) GetSaleDate(ctx context.Context, id int64) (core.SaleDate, error) {
	return a.storage.GetSaleDate(ctx, id)
}

func (a *SQLiteAdapter) DeleteSaleDate(ctx context.Context, id int64, cascade bool) error {
	return a.storage.DeleteSaleDate(ctx, id, cascade)
}

// CreateSale goes through the sale service so the write is mirrored.
func (a *SQLiteAdapter) CreateSale(ctx context.Context, s core.Sale) (int64, error) {
	return a.service.RecordSale(ctx, s)
}

func (a *SQLiteAdapter) ListSales(ctx context.Context, f ledger.SaleFilter) ([]core.SaleRow, error) {
	return a.storage.ListSales(ctx, f)
}

func (a *SQLiteAdapter) GetSale(ctx context.Context, id int64) (core.SaleRow, error) {
	return a.storage.GetSale(ctx, id)
}

// DeleteSale goes through the sale service so the deletion is announced.
func (a *SQLiteAdapter) DeleteSale(ctx context.Context, id int64) error {
	return a.service.DeleteSale(ctx, id)
}
