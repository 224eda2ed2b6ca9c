package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/artisan/internal/cache"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	require.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, 3306, cfg.Database.MySQL.Port)

	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, 250*time.Millisecond, cfg.Cache.OperationTimeout)
	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 5, cfg.Cache.Redis.MaxRetries)
	require.Equal(t, "artisan:", cfg.Cache.Redis.KeyPrefix)
	require.Equal(t, uint32(3), cfg.Cache.Breaker.FailureThreshold)
	require.Equal(t, 10*time.Second, cfg.Cache.Breaker.OpenTimeout)
	require.Equal(t, 30*time.Minute, cfg.Cache.Catalog.TTL)

	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 20, cfg.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)

	require.Equal(t, "*/15 * * * *", cfg.Maintenance.CachePurgeSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, time.Hour, cfg.Cache.Catalog.TTL)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.True(t, cfg.Cache.Breaker.Enabled)
	require.Equal(t, 100, cfg.RateLimit.Requests)
	require.Equal(t, "@hourly", cfg.Maintenance.CachePurgeSchedule)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ARTISAN_SERVER_PORT", "7070")
	t.Setenv("ARTISAN_CACHE_CATALOG_TTL", "5m")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 5*time.Minute, cfg.Cache.Catalog.TTL)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{Port: 8080},
		Cache:  CacheConfig{Catalog: CatalogCacheConfig{TTL: time.Hour}},
	}
	require.NoError(t, cfg.Validate())

	cfg.Cache.Catalog.TTL = 0
	require.Error(t, cfg.Validate())

	cfg.Cache.Catalog.TTL = time.Hour
	cfg.RateLimit = RateLimitConfig{Enabled: true}
	require.Error(t, cfg.Validate())

	cfg.RateLimit = RateLimitConfig{}
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())
}

func TestCacheConfigAdapters(t *testing.T) {
	cfg := CacheConfig{
		Redis: RedisCacheConfig{
			Address:    " localhost:6379 ",
			Password:   "pw",
			DB:         2,
			Timeout:    time.Second,
			MaxRetries: 3,
			KeyPrefix:  "shop:",
		},
		Breaker: BreakerCacheConfig{FailureThreshold: 2, OpenTimeout: time.Minute},
		Catalog: CatalogCacheConfig{TTL: time.Hour},
	}

	require.Equal(t, cache.RedisConfig{
		Address:    "localhost:6379",
		Password:   "pw",
		DB:         2,
		Timeout:    time.Second,
		MaxRetries: 3,
		KeyPrefix:  "shop:",
	}, cfg.RedisClientConfig())

	breaker := cfg.BreakerSettings()
	require.Equal(t, uint32(2), breaker.FailureThreshold)
	require.Equal(t, time.Minute, breaker.OpenTimeout)
	require.Equal(t, "catalog-cache", breaker.Name)
	require.Nil(t, breaker.OnStateChange)

	rateBreaker := cfg.RateLimitBreakerSettings()
	require.Equal(t, "rate-limit-cache", rateBreaker.Name)
	require.Equal(t, breaker.FailureThreshold, rateBreaker.FailureThreshold)
	require.NotNil(t, rateBreaker.OnStateChange)

	require.Len(t, cfg.CatalogOptions(), 2)
}
