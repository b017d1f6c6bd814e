package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "weatherdata.csv", cfg.SourceURL)
	assert.Equal(t, 10*time.Second, cfg.SourceTimeout)
	assert.Empty(t, cfg.SourceCacheAddr)
	assert.Equal(t, 5*time.Minute, cfg.SourceCacheTTL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.WebDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SurfaceWebsocket, cfg.MapSurface)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "globe-markers", cfg.KafkaMarkerTopic)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Empty(t, cfg.ReloadSchedule)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SOURCE_URL", "https://example.com/weatherdata.csv")
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("SOURCE_CACHE_ADDR", "localhost:6379")
	t.Setenv("SOURCE_CACHE_TTL", "1h")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("WEB_DIR", "./web")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAP_SURFACE", "Kafka")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_MARKER_TOPIC", "markers")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("RELOAD_SCHEDULE", "*/15 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/weatherdata.csv", cfg.SourceURL)
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
	assert.Equal(t, "localhost:6379", cfg.SourceCacheAddr)
	assert.Equal(t, time.Hour, cfg.SourceCacheTTL)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "./web", cfg.WebDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SurfaceKafka, cfg.MapSurface)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "markers", cfg.KafkaMarkerTopic)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.Equal(t, "*/15 * * * *", cfg.ReloadSchedule)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"SOURCE_TIMEOUT", "SOURCE_CACHE_TTL", "MAPBOX_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "-1s")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_InvalidMapSurface(t *testing.T) {
	t.Setenv("MAP_SURFACE", "canvas")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_SURFACE")
}

func TestLoad_KafkaSurfaceWithoutBrokers(t *testing.T) {
	t.Setenv("MAP_SURFACE", "kafka")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidReloadSchedule(t *testing.T) {
	t.Setenv("RELOAD_SCHEDULE", "every tuesday")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELOAD_SCHEDULE")
}

func TestLoad_InvalidMapboxCacheSizeFallsBack(t *testing.T) {
	t.Setenv("MAPBOX_CACHE_SIZE", "zero")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}
