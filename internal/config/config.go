package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Map surface kinds.
const (
	SurfaceWebsocket = "websocket"
	SurfaceKafka     = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceURL       string
	SourceTimeout   time.Duration
	SourceCacheAddr string
	SourceCacheTTL  time.Duration

	HTTPAddr        string
	WebDir          string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MapSurface       string
	KafkaBrokers     []string
	KafkaMarkerTopic string

	// Reverse geocoding of unnamed locations.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Cron expression for periodic reloads; empty disables them.
	ReloadSchedule string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parsePositiveDuration("SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("SOURCE_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		SourceURL:       sharedcfg.EnvOrDefault("SOURCE_URL", "weatherdata.csv"),
		SourceTimeout:   sourceTimeout,
		SourceCacheAddr: os.Getenv("SOURCE_CACHE_ADDR"),
		SourceCacheTTL:  cacheTTL,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		WebDir:          os.Getenv("WEB_DIR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapSurface:       strings.ToLower(sharedcfg.EnvOrDefault("MAP_SURFACE", SurfaceWebsocket)),
		KafkaBrokers:     sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaMarkerTopic: sharedcfg.EnvOrDefault("KAFKA_MARKER_TOPIC", "globe-markers"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		ReloadSchedule: strings.TrimSpace(os.Getenv("RELOAD_SCHEDULE")),
	}

	if cfg.SourceURL == "" {
		return nil, errors.New("SOURCE_URL is required")
	}
	switch cfg.MapSurface {
	case SurfaceWebsocket:
	case SurfaceKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("MAP_SURFACE is kafka but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaMarkerTopic == "" {
			return nil, errors.New("KAFKA_MARKER_TOPIC is required")
		}
	default:
		return nil, fmt.Errorf("invalid MAP_SURFACE %q", cfg.MapSurface)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReloadSchedule); err != nil {
			return nil, fmt.Errorf("invalid RELOAD_SCHEDULE: %w", err)
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
