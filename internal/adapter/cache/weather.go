// Package cache wraps providers with a Redis read-through layer. Current
// conditions and forecasts for a coordinate change slowly relative to how
// often crop walks request them, so short TTLs cut provider traffic
// dramatically without staling risk judgement.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/service"
)

// WeatherCache is a read-through Redis cache in front of a weather
// provider. Redis being down degrades to pass-through, never to failure.
type WeatherCache struct {
	inner   service.WeatherProvider
	rdb     *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewWeatherCache(inner service.WeatherProvider, rdb *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *WeatherCache {
	return &WeatherCache{inner: inner, rdb: rdb, ttl: ttl, logger: logger, metrics: metrics}
}

func (c *WeatherCache) Current(ctx context.Context, lat, lng float64) (domain.WeatherSample, error) {
	key := fmt.Sprintf("wx:current:%.2f:%.2f", lat, lng)

	var cached domain.WeatherSample
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	sample, err := c.inner.Current(ctx, lat, lng)
	if err != nil {
		return domain.WeatherSample{}, err
	}
	c.put(ctx, key, sample)
	return sample, nil
}

func (c *WeatherCache) Forecast(ctx context.Context, lat, lng float64, days int) ([]domain.ForecastDay, error) {
	key := fmt.Sprintf("wx:forecast:%.2f:%.2f:%d", lat, lng, days)

	var cached []domain.ForecastDay
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	forecast, err := c.inner.Forecast(ctx, lat, lng, days)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, forecast)
	return forecast, nil
}

// lookup reports whether key was found and decoded into dst.
func (c *WeatherCache) lookup(ctx context.Context, key string, dst any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache read failed", "key", key, "error", err)
		}
		c.metrics.ProviderCache.WithLabelValues("weather", "miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Debug("cache decode failed", "key", key, "error", err)
		c.metrics.ProviderCache.WithLabelValues("weather", "miss").Inc()
		return false
	}
	c.metrics.ProviderCache.WithLabelValues("weather", "hit").Inc()
	return true
}

func (c *WeatherCache) put(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
}
