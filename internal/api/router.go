// Package api provides the HTTP API for the application.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"norelock.dev/mediagate/backend/internal/api/handlers"
	appMiddleware "norelock.dev/mediagate/backend/internal/api/middleware"
	"norelock.dev/mediagate/backend/internal/config"
	"norelock.dev/mediagate/backend/internal/db/redis"
	"norelock.dev/mediagate/backend/internal/services/system"
	"norelock.dev/mediagate/backend/internal/utils"
)

// Dependencies are the services the router exposes. Music, Metrics and RateLimiter are
// optional; their routes or middleware are skipped when nil.
type Dependencies struct {
	Catalog     handlers.CatalogService
	Music       handlers.MusicService
	Health      *system.HealthService
	Metrics     *system.MetricsService
	RateLimiter appMiddleware.RateLimiter
}

// Router is the main HTTP router for the API.
type Router struct {
	*chi.Mux
	logger *utils.Logger
}

// NewRouter creates a new API router.
func NewRouter(cfg *config.Config, deps Dependencies, logger *utils.Logger) *Router {
	r := chi.NewRouter()
	apiLogger := logger.Named("api")

	// Create middleware
	recoveryMiddleware := appMiddleware.NewRecoveryMiddleware(apiLogger)
	loggerMiddleware := appMiddleware.NewLoggerMiddleware(apiLogger)
	corsMiddleware := appMiddleware.NewCORSMiddleware(appMiddleware.DefaultCORSConfig(cfg.Server.AllowedOrigins), apiLogger)

	// Create handlers
	mangaHandler := handlers.NewMangaHandler(deps.Catalog, apiLogger)
	healthHandler := handlers.NewHealthHandler(apiLogger, deps.Health)

	// Apply global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoveryMiddleware.Recovery)
	r.Use(loggerMiddleware.Logger)
	if deps.Metrics != nil {
		r.Use(appMiddleware.NewMetricsMiddleware(deps.Metrics).Metrics)
	}
	r.Use(corsMiddleware.CORS)
	r.Use(middleware.Heartbeat("/ping"))

	// Operational routes
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Check)
	if deps.Metrics != nil && cfg.Features.EnableMetrics {
		r.Method("GET", "/metrics", deps.Metrics.Handler())
	}

	// Gateway routes
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil && cfg.RateLimit.Enabled {
			limit := redis.RateLimit{
				Key:         "api:general",
				MaxRequests: cfg.RateLimit.MaxRequests,
				Window:      cfg.RateLimit.Window,
			}
			var onLimited func()
			if deps.Metrics != nil {
				onLimited = deps.Metrics.IncRateLimited
			}
			r.Use(appMiddleware.NewRateLimitMiddleware(deps.RateLimiter, limit, onLimited, apiLogger).Limit)
		}

		// Manga routes
		r.Get("/manga/search", WithParams(mangaHandler.Search))
		r.Get("/manga/home", WithParams(mangaHandler.Home))
		r.Get("/manga/{id}/chapters", WithParams(mangaHandler.Chapters))
		r.Get("/chapter/{id}/pages", WithParams(mangaHandler.Pages))

		// Music routes. Search and home need a metadata provider, streaming does not.
		if deps.Music != nil {
			musicHandler := handlers.NewMusicHandler(deps.Music, cfg.Stream.WriteTimeout, apiLogger)
			if deps.Music.HasMetadata() {
				r.Get("/music/search", WithParams(musicHandler.Search))
				r.Get("/music/home", WithParams(musicHandler.Home))
			}
			r.Get("/music/{videoId}/stream", WithParams(musicHandler.Stream))
		}
	})

	return &Router{
		Mux:    r,
		logger: apiLogger,
	}
}
