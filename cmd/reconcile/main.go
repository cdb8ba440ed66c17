package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/snacktacular/backend/internal/app"
	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
)

func main() {
	var spotID string
	flag.StringVar(&spotID, "spot", "", "recompute a single spot instead of every spot")
	flag.Parse()

	cfg, vaultResult, err := app.LoadConfig(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-reconcile", cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()
	if vaultResult.Loaded+vaultResult.Skipped > 0 {
		logger.Info().Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("Vault secrets applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, app.Options{StoreOnly: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer deps.Close()

	aggregator := services.NewRatingAggregator(deps.Store, cfg.Ratings.PersistAttempts)
	reconciler := services.NewRatingReconciler(deps.Store, aggregator)

	if spotID != "" {
		if err := reconciler.ReconcileSpot(ctx, spotID); err != nil {
			logger.Error().Err(err).Str("spot_id", spotID).Msg("Reconcile failed")
			os.Exit(1)
		}
		logger.Info().Str("spot_id", spotID).Msg("Spot rating reconciled")
		return
	}

	count, err := reconciler.ReconcileAll(ctx)
	if err != nil {
		logger.Error().Err(err).Int("reconciled", count).Msg("Reconcile finished with errors")
		os.Exit(1)
	}
	logger.Info().Int("reconciled", count).Msg("Reconcile complete")
}
