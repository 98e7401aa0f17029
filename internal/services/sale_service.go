package services

import (
	"context"
	"fmt"
	"log/slog"

	"vendas/internal/amqp"
	"vendas/internal/core"
	"vendas/internal/storage"
)

// SaleService orchestrates sale writes across SQLite and AMQP
type SaleService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewSaleService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *SaleService {
	return &SaleService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// RecordSale saves a sale locally and publishes a sync message
func (s *SaleService) RecordSale(ctx context.Context, sale core.Sale) (int64, error) {
	// Save to SQLite first (fast, reliable)
	id, err := s.storage.CreateSale(ctx, sale)
	if err != nil {
		return 0, fmt.Errorf("save sale: %w", err)
	}

	// Publish async sync message (non-blocking, version 1 for new sale)
	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
		// Don't fail the request - sale is saved locally, the worker
		// catches it up from the pending scan
	}

	return id, nil
}

// DeleteSale removes a sale locally and publishes a delete message
func (s *SaleService) DeleteSale(ctx context.Context, id int64) error {
	if err := s.storage.DeleteSale(ctx, id); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}

	// Publish async delete message (non-blocking)
	if err := s.publishDeleteMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
		// Don't fail the request - sale is deleted locally
	}

	return nil
}

func (s *SaleService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishSaleRecorded(ctx, id, version)
}

func (s *SaleService) publishDeleteMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}

	return s.amqpClient.PublishSaleDeleted(ctx, id)
}

// Close closes both storage and AMQP connections
func (s *SaleService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close sale service: %v", errs)
	}

	return nil
}
