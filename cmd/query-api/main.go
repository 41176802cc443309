package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sitepulse/sitepulse/internal/cache"
	"github.com/sitepulse/sitepulse/internal/config"
	"github.com/sitepulse/sitepulse/internal/handler"
	"github.com/sitepulse/sitepulse/internal/storage"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/query-api.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}

	log.Info().
		Str("clickhouse_addr", cfg.ClickHouse.Addr).
		Str("redis_addr", cfg.Redis.Addr).
		Msg("Configuration loaded")

	// Initialize the behavioral event store
	ch, err := storage.NewClickHouse(cfg.ClickHouse, cfg.Engine.Query.MaxRows)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to ClickHouse")
	}
	defer ch.Close()
	log.Info().Msg("Connected to ClickHouse")

	// Initialize the experiment config store
	pg, err := storage.NewPostgres(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer pg.Close()
	log.Info().Msg("Connected to Postgres")

	// Result caching: Redis when configured, in-process otherwise
	var resultCache cache.Cache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis, falling back to in-memory cache")
			resultCache = cache.NewMemory()
		} else {
			defer rdb.Close()
			resultCache = cache.NewRedis(rdb, "sitepulse:query:")
			log.Info().Msg("Connected to Redis")
		}
	} else {
		resultCache = cache.NewMemory()
	}

	httpHandler := handler.NewHTTPHandler(ch, pg, resultCache, handler.Options{
		HeatmapTTL:          cfg.Cache.HeatmapTTL,
		ExperimentConfigTTL: cfg.Cache.ExperimentConfigTTL,
		HotspotRadiusPx:     cfg.Engine.Hotspot.RadiusPx,
		ConfidenceLevel:     cfg.Engine.Experiment.ConfidenceLevel,
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(handler.RequestIDMiddleware)
	r.Use(handler.CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	httpHandler.Routes(r)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Info().Int("port", cfg.Server.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to serve HTTP")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	httpServer.Shutdown(context.Background())
	log.Info().Msg("Shutdown complete")
}
