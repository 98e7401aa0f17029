package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vendas/internal/amqp"
	"vendas/internal/core"
	"vendas/internal/mirror"
	"vendas/internal/storage"
)

// MirrorWorker copies recorded sales from SQLite to the external mirror.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	appender  mirror.SaleAppender
	batchSize int
}

func NewMirrorWorker(storage *storage.SQLiteRepository, appender mirror.SaleAppender, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single sale sync message from AMQP
func (w *MirrorWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SaleSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"message_id", msg.MessageID,
		"event", msg.Event,
		"id", msg.ID,
		"version", msg.Version)

	// The mirror is append-only. Deletions stay visible in SQLite history;
	// here they are only acknowledged.
	if msg.Event == amqp.EventDeleted {
		slog.InfoContext(ctx, "Sale deleted locally, mirror keeps its row", "id", msg.ID)
		return nil
	}

	return w.mirrorSale(ctx, msg.ID)
}

// ProcessPendingSales mirrors any sales that have not been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *MirrorWorker) ProcessPendingSales(ctx context.Context) error {
	pending, err := w.storage.PendingMirrorSales(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending sales: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending sales", "count", len(pending))

	for _, p := range pending {
		if err := w.mirrorSale(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror sale", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck mirrors any pending sales at worker startup. This is
// useful to recover from missed AMQP messages or worker downtime.
func (w *MirrorWorker) StartupSyncCheck(ctx context.Context) error {
	// Get a larger batch for startup check
	pending, err := w.storage.PendingMirrorSales(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending sales for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending sales found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending sales on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.mirrorSale(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror sale during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *MirrorWorker) mirrorSale(ctx context.Context, id int64) error {
	row, err := w.storage.GetSale(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before it could be mirrored. Nothing left to copy.
		slog.WarnContext(ctx, "Sale no longer exists, skipping mirror", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get sale from storage: %w", err)
	}

	ref, err := w.appender.Append(ctx, row)
	if err != nil {
		if markErr := w.storage.MarkMirrorError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.storage.MarkMirrored(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as mirrored", "id", id, "error", err)
		// Don't return error here - the append actually worked
	}

	slog.InfoContext(ctx, "Successfully mirrored sale",
		"id", id,
		"mirror_ref", ref,
		"product", row.ProductName,
		"quantity", row.Quantity)

	return nil
}
