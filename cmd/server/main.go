package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"norelock.dev/mediagate/backend/internal/api"
	"norelock.dev/mediagate/backend/internal/config"
	"norelock.dev/mediagate/backend/internal/db/redis"
	"norelock.dev/mediagate/backend/internal/services/catalog"
	"norelock.dev/mediagate/backend/internal/services/fallback"
	"norelock.dev/mediagate/backend/internal/services/music"
	"norelock.dev/mediagate/backend/internal/services/system"
	"norelock.dev/mediagate/backend/internal/utils"
	"norelock.dev/mediagate/backend/pkg/mediaproxy"
)

func main() {
	// Canceled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	warnings := config.ValidateAndFixConfig(cfg)

	// Initialize logger
	logger := utils.NewLogger(config.LoggerOptions(cfg))
	utils.SetLogger(logger)
	defer logger.Sync()

	for _, warning := range warnings {
		logger.Warn("Configuration adjusted", "warning", warning)
	}
	logger.Info("Starting mediagate server", "environment", cfg.Environment, "version", cfg.Version)
	logger.Debug("Effective configuration", "config", config.GetConfigString(cfg))

	metrics := system.NewMetricsService(logger)
	var checkers []system.Checker

	// Initialize Redis client
	var rateLimiter *redis.RateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer redisClient.Close()

		checkers = append(checkers, system.Checker{Name: "redis", Check: redisClient.Ping})
		if cfg.RateLimit.Enabled {
			rateLimiter = redis.NewRateLimiter(redisClient)
		}
	}

	// Initialize catalog services, one provider per base URL in fallback order
	providers := make([]catalog.Provider, 0, len(cfg.Catalog.BaseURLs))
	for _, baseURL := range cfg.Catalog.BaseURLs {
		providers = append(providers, catalog.NewMangaDexProvider(baseURL, logger,
			catalog.WithRequestsPerSecond(cfg.Catalog.RequestsPerSecond),
			catalog.WithUserAgent(cfg.Catalog.UserAgent),
		))
	}
	resolver := fallback.NewResolver(logger,
		fallback.WithAttemptTimeout(cfg.Catalog.AttemptTimeout),
		fallback.WithObserver(metrics),
	)
	catalogService, err := catalog.NewService(providers, resolver, logger)
	if err != nil {
		logger.Fatal("Failed to create catalog service", err)
	}

	deps := api.Dependencies{
		Catalog: catalogService,
		Metrics: metrics,
	}
	if rateLimiter != nil {
		deps.RateLimiter = rateLimiter
	}

	// Initialize music services
	if cfg.Features.EnableMusic {
		var metadata music.MetadataProvider
		if cfg.Music.YouTubeAPIKey != "" {
			youtubeProvider, err := music.NewYouTubeProvider(ctx, cfg.Music.YouTubeAPIKey, cfg.Music.Region, logger)
			if err != nil {
				logger.Fatal("Failed to create YouTube provider", err)
			}
			metadata = youtubeProvider
		}

		extractor := music.NewYTDLPResolver(logger,
			music.WithBinary(cfg.Stream.YTDLPPath),
			music.WithExtractTimeout(cfg.Stream.ExtractTimeout),
		)
		checkers = append(checkers, system.Checker{
			Name: "stream_extractor",
			Check: func(context.Context) error {
				_, err := extractor.LookPath()
				return err
			},
			FailureStatus: system.StatusDegraded,
		})

		relay := mediaproxy.NewRelay(
			mediaproxy.WithHTTPClient(mediaproxy.NewHTTPClient(cfg.Stream.Timeout)),
			mediaproxy.WithIdleTimeout(cfg.Stream.Timeout),
			mediaproxy.WithChunkSize(cfg.Stream.ChunkSize),
			mediaproxy.WithObserver(metrics),
		)

		musicService, err := music.NewService(metadata, extractor, relay, logger)
		if err != nil {
			logger.Fatal("Failed to create music service", err)
		}
		deps.Music = musicService
	}

	// Initialize system services
	healthService := system.NewHealthService(logger, system.HealthServiceConfig{
		Version:     cfg.Version,
		Environment: cfg.Environment,
	}, checkers...)
	healthService.Start(ctx)
	deps.Health = healthService

	// Initialize API router
	router := api.NewRouter(cfg, deps, logger)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server")
	case err := <-serverErr:
		logger.Error("HTTP server error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}

	logger.Info("Server shutdown complete")
}
