package loader

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/observability"
	redisv9 "github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "weather-globe:source:"

// CachedSource wraps a Source with a Redis read-through cache of the raw body.
// Redis failures fall back to the inner source.
type CachedSource struct {
	inner   Source
	client  *redisv9.Client
	key     string
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator storing the body under name for ttl.
func NewCachedSource(inner Source, client *redisv9.Client, name string, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		client:  client,
		key:     cacheKeyPrefix + name,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *CachedSource) Fetch(ctx context.Context) ([]byte, error) {
	cached, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		return cached, nil
	case errors.Is(err, redisv9.Nil):
		c.metrics.SourceCache.WithLabelValues("miss").Inc()
	default:
		c.metrics.SourceCache.WithLabelValues("error").Inc()
		c.logger.Warn("source cache read failed", "key", c.key, "error", err)
	}

	body, err := c.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, c.key, body, c.ttl).Err(); err != nil {
		c.logger.Warn("source cache write failed", "key", c.key, "error", err)
	}
	return body, nil
}
