package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendas/internal/backend"
	"vendas/internal/cli"
	"vendas/internal/config"
	"vendas/internal/core"
	apphttp "vendas/internal/http"
	applog "vendas/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	fees, err := feesFromConfig(cfg)
	if err != nil {
		logger.Error("Invalid fee configuration", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, fees)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting vendas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"fee_rate_sum", fees.RateSum().String(),
		"fixed_fee", fees.FixedFeePerUnit.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// feesFromConfig builds the startup fee configuration from the defaults
// plus any environment overrides.
func feesFromConfig(cfg *config.Config) (core.FeeConfig, error) {
	fees := core.DefaultFees()

	if cfg.FeeVariableRate != "" {
		r, err := core.ParseRate(cfg.FeeVariableRate)
		if err != nil {
			return core.FeeConfig{}, fmt.Errorf("variable rate %q: %w", cfg.FeeVariableRate, err)
		}
		fees.VariableRate = r
	}
	if cfg.FeeFixedPerUnit != "" {
		f, err := core.ParseAmount(cfg.FeeFixedPerUnit)
		if err != nil {
			return core.FeeConfig{}, fmt.Errorf("fixed fee %q: %w", cfg.FeeFixedPerUnit, err)
		}
		fees.FixedFeePerUnit = f
	}
	if cfg.FeeTaxRate != "" {
		r, err := core.ParseRate(cfg.FeeTaxRate)
		if err != nil {
			return core.FeeConfig{}, fmt.Errorf("tax rate %q: %w", cfg.FeeTaxRate, err)
		}
		fees.TaxRate = r
	}
	if cfg.FeeAnticipationRate != "" {
		r, err := core.ParseRate(cfg.FeeAnticipationRate)
		if err != nil {
			return core.FeeConfig{}, fmt.Errorf("anticipation rate %q: %w", cfg.FeeAnticipationRate, err)
		}
		fees.AnticipationRate = r
	}

	if err := fees.Validate(); err != nil {
		return core.FeeConfig{}, err
	}
	return fees, nil
}
