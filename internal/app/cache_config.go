package app

import (
	"strings"

	"github.com/sony/gobreaker"

	"github.com/charlesng35/artisan/internal/cache"
	"github.com/charlesng35/artisan/internal/catalog"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:    strings.TrimSpace(c.Redis.Address),
		Username:   strings.TrimSpace(c.Redis.Username),
		Password:   c.Redis.Password,
		DB:         c.Redis.DB,
		TLS:        c.Redis.TLS,
		Timeout:    c.Redis.Timeout,
		MaxRetries: c.Redis.MaxRetries,
		KeyPrefix:  strings.TrimSpace(c.Redis.KeyPrefix),
	}
}

// BreakerSettings converts the breaker section. Zero values fall back to the
// cache package defaults.
func (c CacheConfig) BreakerSettings() cache.BreakerConfig {
	return cache.BreakerConfig{
		Name:             "catalog-cache",
		FailureThreshold: c.Breaker.FailureThreshold,
		OpenTimeout:      c.Breaker.OpenTimeout,
		HalfOpenRequests: c.Breaker.HalfOpenRequests,
	}
}

// RateLimitBreakerSettings configures the separate breaker in front of the
// rate limiter's counters. Its short per-request deadlines must not open the
// catalog cache circuit, and its transitions are not reported as the catalog
// breaker state.
func (c CacheConfig) RateLimitBreakerSettings() cache.BreakerConfig {
	settings := c.BreakerSettings()
	settings.Name = "rate-limit-cache"
	settings.OnStateChange = func(gobreaker.State) {}
	return settings
}

// CatalogOptions returns the reader and invalidator options for the catalog.
func (c CacheConfig) CatalogOptions() []catalog.Option {
	return []catalog.Option{
		catalog.WithTTL(c.Catalog.TTL),
		catalog.WithCacheTimeout(c.OperationTimeout),
	}
}
