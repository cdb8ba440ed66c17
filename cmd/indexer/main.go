package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/snacktacular/backend/internal/app"
	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/infrastructure/clients/typesense"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, vaultResult, err := app.LoadConfig(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()
	if vaultResult.Loaded+vaultResult.Skipped > 0 {
		logger.Info().Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("Vault secrets applied")
	}

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			logger.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			logger.Fatal().Msg("Interval must be greater than zero")
		}
	}

	if !cfg.Typesense.Enabled {
		logger.Fatal().Msg("TYPESENSE_ENABLED must be true to run the indexer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset || os.Getenv("RESET_TYPESENSE") == "true"); err != nil {
			logger.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("next_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			logger.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	logger := observability.GetLogger()

	if reset {
		client, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			return err
		}
		logger.Info().Msg("Reset requested")
		if err := client.DropSpots(ctx); err != nil {
			return err
		}
	}

	// Open recreates the collection schema
	deps, err := app.Open(ctx, cfg, app.Options{StoreOnly: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	if deps.Search == nil {
		return fmt.Errorf("typesense is not reachable")
	}

	spots := services.NewSpotService(deps.Store, nil, deps.SpotSearch())
	count, err := spots.Reindex(ctx)
	if err != nil {
		return err
	}
	logger.Info().Int("indexed", count).Msg("Indexing complete")
	return nil
}
