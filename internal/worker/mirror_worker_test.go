package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"vendas/internal/amqp"
	"vendas/internal/core"
	"vendas/internal/mirror/memory"
	"vendas/internal/storage"

	"github.com/shopspring/decimal"
)

type failingAppender struct{}

func (failingAppender) Append(context.Context, core.SaleRow) (string, error) {
	return "", errors.New("mirror unavailable")
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "vendas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedSale(t *testing.T, repo *storage.SQLiteRepository) int64 {
	t.Helper()
	ctx := context.Background()

	productID, err := repo.CreateProduct(ctx, core.Product{Name: "Caneca", UnitCost: decimal.RequireFromString("20.00")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	dateID, err := repo.CreateSaleDate(ctx, core.SaleDate{Day: core.NewDate(2026, 3, 15)})
	if err != nil {
		t.Fatalf("CreateSaleDate: %v", err)
	}
	saleID, err := repo.CreateSale(ctx, core.Sale{
		DateID:    dateID,
		ProductID: productID,
		Quantity:  10,
		UnitPrice: decimal.RequireFromString("50.00"),
		Fees:      core.DefaultFees(),
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	return saleID
}

func TestHandleSyncMessage_MirrorsSale(t *testing.T) {
	repo := newRepo(t)
	saleID := seedSale(t, repo)
	sink := memory.New()
	w := NewMirrorWorker(repo, sink, 10)
	ctx := context.Background()

	msg := amqp.NewSaleRecordedMessage(saleID, 1)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	rows := sink.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 mirrored row, got %d", len(rows))
	}
	if rows[0].ID != saleID || rows[0].ProductName != "Caneca" {
		t.Errorf("unexpected mirrored row: %+v", rows[0])
	}

	pending, err := repo.PendingMirrorSales(ctx, 10)
	if err != nil {
		t.Fatalf("PendingMirrorSales: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("sale should be marked mirrored, %d still pending", len(pending))
	}
}

func TestHandleSyncMessage_DeleteIsAcknowledged(t *testing.T) {
	repo := newRepo(t)
	sink := memory.New()
	w := NewMirrorWorker(repo, sink, 10)

	msg := amqp.NewSaleDeletedMessage(42)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("delete message should be acknowledged, got %v", err)
	}
	if len(sink.Rows()) != 0 {
		t.Error("delete message must not append to the mirror")
	}
}

func TestHandleSyncMessage_MissingSaleIsSkipped(t *testing.T) {
	repo := newRepo(t)
	sink := memory.New()
	w := NewMirrorWorker(repo, sink, 10)

	// A sale deleted before the worker got to it must not requeue forever.
	msg := amqp.NewSaleRecordedMessage(9999, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("missing sale should be skipped, got %v", err)
	}
	if len(sink.Rows()) != 0 {
		t.Error("nothing should be mirrored for a missing sale")
	}
}

func TestHandleSyncMessage_AppendFailureKeepsPending(t *testing.T) {
	repo := newRepo(t)
	saleID := seedSale(t, repo)
	w := NewMirrorWorker(repo, failingAppender{}, 10)
	ctx := context.Background()

	msg := amqp.NewSaleRecordedMessage(saleID, 1)
	if err := w.HandleSyncMessage(ctx, msg); err == nil {
		t.Fatal("expected append failure to propagate")
	}

	pending, err := repo.PendingMirrorSales(ctx, 10)
	if err != nil {
		t.Fatalf("PendingMirrorSales: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != saleID {
		t.Fatalf("sale should stay pending after append failure, got %+v", pending)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	repo := newRepo(t)
	first := seedSale(t, repo)

	ctx := context.Background()
	dateID, err := repo.CreateSaleDate(ctx, core.SaleDate{Day: core.NewDate(2026, 3, 16)})
	if err != nil {
		t.Fatalf("CreateSaleDate: %v", err)
	}
	productID, err := repo.CreateProduct(ctx, core.Product{Name: "Camiseta", UnitCost: decimal.RequireFromString("12.00")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	second, err := repo.CreateSale(ctx, core.Sale{
		DateID:    dateID,
		ProductID: productID,
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("35.00"),
		Fees:      core.DefaultFees(),
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	sink := memory.New()
	w := NewMirrorWorker(repo, sink, 10)

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}

	rows := sink.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 mirrored rows, got %d", len(rows))
	}
	got := map[int64]bool{rows[0].ID: true, rows[1].ID: true}
	if !got[first] || !got[second] {
		t.Errorf("mirrored ids = %v, want %d and %d", got, first, second)
	}

	pending, err := repo.PendingMirrorSales(ctx, 10)
	if err != nil {
		t.Fatalf("PendingMirrorSales: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("all sales should be mirrored, %d still pending", len(pending))
	}
}

func TestProcessPendingSales_Empty(t *testing.T) {
	repo := newRepo(t)
	w := NewMirrorWorker(repo, memory.New(), 10)

	if err := w.ProcessPendingSales(context.Background()); err != nil {
		t.Fatalf("ProcessPendingSales on empty store: %v", err)
	}
}
