package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vendas/internal/worker"
)

// MirrorProcessorConfig holds configuration for the mirror processor
type MirrorProcessorConfig struct {
	// PollInterval is how often to rescan for pending sales (default: 30s)
	PollInterval time.Duration
}

// DefaultMirrorProcessorConfig returns sensible defaults
func DefaultMirrorProcessorConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		PollInterval: 30 * time.Second,
	}
}

// MirrorProcessor periodically rescans the pending queue and mirrors
// what the AMQP path missed. The scan on Start recovers from worker
// downtime; the ticker covers lost messages while running.
type MirrorProcessor struct {
	worker *worker.MirrorWorker
	config MirrorProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMirrorProcessor creates a new mirror processor
func NewMirrorProcessor(w *worker.MirrorWorker, config MirrorProcessorConfig) *MirrorProcessor {
	return &MirrorProcessor{
		worker: w,
		config: config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *MirrorProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	// Catch up on anything left pending before the loop takes over
	if err := p.worker.StartupSyncCheck(ctx); err != nil {
		slog.WarnContext(ctx, "Startup sync check failed", "error", err)
	}

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror processor started",
		"poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *MirrorProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	// Signal stop
	close(p.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Mirror processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *MirrorProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main processing loop
func (p *MirrorProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.worker.ProcessPendingSales(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to process pending sales", "error", err)
			}
		}
	}
}
