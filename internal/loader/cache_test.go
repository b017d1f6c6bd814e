package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedSource(t *testing.T, inner Source) (*CachedSource, *miniredis.Miniredis, *observability.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	metrics := observability.NewMetricsForTesting()
	return NewCachedSource(inner, client, "weatherdata.csv", time.Minute, discardLogger(), metrics), mr, metrics
}

func TestCachedSource_ReadThrough(t *testing.T) {
	inner := &staticSource{body: []byte(testHeader)}
	cached, mr, metrics := newCachedSource(t, inner)

	b1, err := cached.Fetch(context.Background())
	require.NoError(t, err)
	b2, err := cached.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
	assert.Equal(t, 1, inner.calls, "second fetch should be served from redis")
	assert.True(t, mr.Exists(cacheKeyPrefix+"weatherdata.csv"))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SourceCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SourceCache.WithLabelValues("hit")), 0)
}

func TestCachedSource_Expiry(t *testing.T) {
	inner := &staticSource{body: []byte(testHeader)}
	cached, mr, _ := newCachedSource(t, inner)

	_, err := cached.Fetch(context.Background())
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cached.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_FetchErrorNotCached(t *testing.T) {
	inner := &staticSource{err: errors.New("boom")}
	cached, mr, _ := newCachedSource(t, inner)

	_, err := cached.Fetch(context.Background())
	require.Error(t, err)
	assert.False(t, mr.Exists(cacheKeyPrefix+"weatherdata.csv"))
}

func TestCachedSource_RedisDownFallsBack(t *testing.T) {
	inner := &staticSource{body: []byte(testHeader)}
	cached, mr, metrics := newCachedSource(t, inner)
	mr.Close()

	body, err := cached.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testHeader, string(body))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SourceCache.WithLabelValues("error")), 0)
}
