package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/weather-globe-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-globe-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-globe-service/internal/adapter/mapbox"
	"github.com/couchcryptid/weather-globe-service/internal/adapter/ws"
	"github.com/couchcryptid/weather-globe-service/internal/config"
	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/globe"
	"github.com/couchcryptid/weather-globe-service/internal/loader"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
	"github.com/couchcryptid/weather-globe-service/internal/schedule"
	"github.com/couchcryptid/weather-globe-service/internal/view"
	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
)

const reloadTimeout = time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var source loader.Source = loader.NewSource(cfg.SourceURL, cfg.SourceTimeout)
	var redisClient *redisv9.Client
	if cfg.SourceCacheAddr != "" {
		redisClient = redisv9.NewClient(&redisv9.Options{Addr: cfg.SourceCacheAddr})
		source = loader.NewCachedSource(source, redisClient, cfg.SourceURL, cfg.SourceCacheTTL, logger, metrics)
		logger.Info("source cache enabled", "addr", cfg.SourceCacheAddr, "ttl", cfg.SourceCacheTTL)
	}

	// Reverse geocoding of unnamed locations (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder cache", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	l := loader.New(source, geocoder, logger, metrics)
	hub := ws.NewHub(logger, metrics)

	var mapSurface view.MapSurface = hub
	var kafkaSurface *kafkaadapter.Surface
	if cfg.MapSurface == config.SurfaceKafka {
		kafkaSurface = kafkaadapter.NewSurface(cfg, logger)
		mapSurface = kafkaSurface
		logger.Info("markers published to kafka", "topic", cfg.KafkaMarkerTopic)
	}

	ctrl := globe.New(l, globe.Surfaces{Map: mapSurface, List: hub, Detail: hub}, nil, logger, metrics)
	hub.SetCommands(ctrl)

	srv := httpadapter.NewServer(cfg.HTTPAddr, ctrl, httpadapter.Options{Websocket: hub, WebDir: cfg.WebDir}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)
	go func() {
		if err := ctrl.Run(ctx); err != nil {
			logger.Error("controller error", "error", err)
		}
	}()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var scheduler *schedule.ReloadScheduler
	if cfg.ReloadSchedule != "" {
		scheduler = schedule.NewReloadScheduler(cfg.ReloadSchedule, ctrl, reloadTimeout, logger)
	}

	// Loads, including scheduled ones, start only after the map surface
	// reports its tiles settled.
	go func() {
		select {
		case <-mapSurface.TilesSettled():
		case <-ctx.Done():
			return
		}
		if err := ctrl.Load(ctx); err != nil {
			logger.Warn("initial load incomplete", "error", err)
		}
		if scheduler == nil || ctx.Err() != nil {
			return
		}
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("failed to start reload scheduler", "error", err)
			stop()
			return
		}
		logger.Info("scheduled reloads enabled", "schedule", cfg.ReloadSchedule)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaSurface != nil {
		if err := kafkaSurface.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
