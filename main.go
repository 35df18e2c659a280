package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/apikeys-dashboard/src/config"
	"github.com/khabaroff/apikeys-dashboard/src/handlers"
	"github.com/khabaroff/apikeys-dashboard/src/logging"
	"github.com/khabaroff/apikeys-dashboard/src/metrics"
	"github.com/khabaroff/apikeys-dashboard/src/middleware"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: handlers.ServiceName,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Int("port", cfg.Port).
		Str("store_driver", cfg.StoreDriver).
		Str("log_level", cfg.LogLevel).
		Msg("starting server")

	// Initialize key store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	backend, err := repositories.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize key store")
	}
	defer backend.Close()

	log.Info().Str("driver", backend.Driver).Msg("key store connected")

	// Dashboard authentication (optional, empty secret disables)
	if cfg.DashboardJWTSecret != "" {
		if err := middleware.CheckDashboardSecret(cfg.DashboardJWTSecret); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize dashboard authentication")
		}
		log.Info().Msg("dashboard authentication enabled on /keys")
	} else {
		log.Warn().Msg("DASHBOARD_JWT_SECRET not set - key management routes are unauthenticated")
	}

	// Initialize services
	recorder := metrics.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	registry := services.NewKeyRegistry(backend.Store,
		services.WithTimeout(cfg.StoreTimeout),
		services.WithUsageTracking(cfg.KeyUsageTracking),
		services.WithMetrics(recorder),
	)
	statsService := services.NewKeyStatsService(registry, recorder, cfg.StatsInterval)
	limiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.ValidateRatePerMinute,
	})

	// Start background services
	go statsService.Start(context.Background())

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware("/health", "/ready", "/metrics"))
	router.Use(gin.Recovery())

	// Add CORS middleware for the dashboard origins
	origins := cfg.Origins()
	corsConfig := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, allowed := range origins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Setup routes
	handlers.RegisterRoutes(router, handlers.RouterDeps{
		Keys:                  registry,
		Generator:             services.NewEchoGenerator(),
		Store:                 backend.Store,
		Driver:                backend.Driver,
		DashboardSecret:       cfg.DashboardJWTSecret,
		RequireKeyForGenerate: cfg.GenerateRequireKey,
		Limiter:               limiter,
	})

	// Create HTTP server with timeouts (protect from Slowloris attack)
	srv := &http.Server{
		Addr:              ":" + formatPort(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Stop background services
	statsService.Stop()
	limiter.Stop()

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

func formatPort(port int) string {
	return fmt.Sprintf("%d", port)
}
