package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vendas/internal/amqp"
	"vendas/internal/cli"
	"vendas/internal/config"
	applog "vendas/internal/log"
	"vendas/internal/mirror"
	gmirror "vendas/internal/mirror/google"
	memmirror "vendas/internal/mirror/memory"
	"vendas/internal/services"
	"vendas/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting vendas-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	appender, err := buildAppender(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize mirror target", "error", err, "target", cfg.MirrorTarget)
		os.Exit(1)
	}

	// AMQP client consumes sale sync messages published by the web app
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirrorWorker := worker.NewMirrorWorker(sqliteRepo, appender, cfg.SyncBatchSize)

	// The processor runs the startup catch-up scan and the periodic
	// rescan that covers messages lost while the queue was down.
	processor := services.NewMirrorProcessor(mirrorWorker, services.MirrorProcessorConfig{
		PollInterval: cfg.SyncInterval,
	})
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start mirror processor", "error", err)
		os.Exit(1)
	}

	// Consumer and signal watcher run as a group: whichever exits first
	// cancels the shared context and drags the other down with it.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeSaleSync(gctx, func(msg *amqp.SaleSyncMessage) error {
			return mirrorWorker.HandleSyncMessage(gctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
	}

	logger.Info("Shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Mirror processor did not stop cleanly", "error", err)
	}
	cancel()

	logger.Info("Worker shutdown complete")
}

// buildAppender selects the mirror destination from the configuration.
// ValidateWorker has already constrained the target to a known value.
func buildAppender(ctx context.Context, cfg *config.Config, logger *applog.Logger) (mirror.SaleAppender, error) {
	switch cfg.MirrorTarget {
	case "sheets":
		client, err := gmirror.NewFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("Google Sheets mirror initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
		return client, nil
	default:
		logger.Info("In-memory mirror initialized - appended rows are not persisted")
		return memmirror.New(), nil
	}
}
