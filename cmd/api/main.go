package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snacktacular/backend/internal/adapters/providers/geolocation"
	"github.com/snacktacular/backend/internal/adapters/storage"
	"github.com/snacktacular/backend/internal/api/handlers"
	"github.com/snacktacular/backend/internal/api/middleware"
	"github.com/snacktacular/backend/internal/api/routes"
	"github.com/snacktacular/backend/internal/app"
	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
)

func main() {
	cfg, vaultResult, err := app.LoadConfig(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()
	if vaultResult.Loaded+vaultResult.Skipped > 0 {
		logger.Info().Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("Vault secrets applied")
	}

	ctx := context.Background()

	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to setup OpenTelemetry")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	deps, err := app.Open(ctx, cfg, app.Options{Metrics: metrics, BlobBaseURL: "/blobs"})
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open backends")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing backends")
		}
	}()
	logger.Info().Str("backend", cfg.Store.Backend).Msg("Document store ready")

	// Services
	aggregator := services.NewRatingAggregator(deps.Store, cfg.Ratings.PersistAttempts).WithMetrics(metrics)
	reconciler := services.NewRatingReconciler(deps.Store, aggregator)
	spotService := services.NewSpotService(deps.Store, deps.Blobs, deps.SpotSearch()).WithRatings(aggregator)
	reviewService := services.NewReviewService(deps.Store, aggregator, deps.Notifier)
	photoService := services.NewPhotoService(deps.Store, deps.Blobs)
	userDirectory := services.NewUserDirectory(deps.Store, deps.Cache).WithMetrics(metrics)
	geoProvider := geolocation.NewProvider(cfg.Geolocation, deps.Cache)

	// Handlers
	spotHandler := handlers.NewSpotHandler(spotService)
	reviewHandler := handlers.NewReviewHandler(spotService, reviewService)
	photoHandler := handlers.NewPhotoHandler(spotService, photoService)
	userHandler := handlers.NewUserHandler(userDirectory)
	geolocationHandler := handlers.NewGeolocationHandler(geoProvider)
	sseHandler := handlers.NewSSEHandler(deps.Store, metrics)

	opts := routes.Options{
		Identity:        deps.Identity,
		CacheMiddleware: middleware.NewCacheMiddleware(deps.Cache, metrics),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Metrics:         metrics,
	}
	if memBlobs, ok := deps.Blobs.(*storage.MemoryBlobStore); ok {
		opts.Blobs = memBlobs
	}

	router := routes.NewRouter(
		spotHandler,
		reviewHandler,
		photoHandler,
		userHandler,
		geolocationHandler,
		sseHandler,
		opts,
	)

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	if cfg.Ratings.ReconcileInterval > 0 {
		go reconciler.Run(runCtx, cfg.Ratings.ReconcileInterval, cfg.Ratings.SweepEvery)
		logger.Info().
			Dur("interval", cfg.Ratings.ReconcileInterval).
			Int("sweep_every", cfg.Ratings.SweepEvery).
			Msg("Rating reconciler started")
	}

	// Streams stay open, so only the read side is bounded
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	stopRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	reviewService.WaitNotifications()

	logger.Info().Msg("Server exited")
}
