package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/artisan/internal/api"
	"github.com/charlesng35/artisan/internal/app"
	"github.com/charlesng35/artisan/internal/cache"
	"github.com/charlesng35/artisan/internal/catalog"
	sharedtestutil "github.com/charlesng35/artisan/internal/database/testutil"
	"github.com/charlesng35/artisan/internal/monitoring"
	"github.com/charlesng35/artisan/internal/monitoring/checks"
	"github.com/charlesng35/artisan/internal/services"
)

// Env encapsulates a fully-wired API instance backed by an in-memory
// database and a miniredis cache for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Store      catalog.Store
	Catalog    *catalog.Catalog
	Redis      *miniredis.Miniredis
	Cache      cache.Store
	Monitoring *monitoring.Module
	Router     *gin.Engine
}

type envConfig struct {
	noCache   bool
	wrapStore func(catalog.Store) catalog.Store
	mutateCfg func(*app.Config)
}

// EnvOption customises NewEnv.
type EnvOption func(*envConfig)

// WithoutCache runs the catalog with no cache backend.
func WithoutCache() EnvOption {
	return func(cfg *envConfig) { cfg.noCache = true }
}

// WithStoreWrapper lets a test intercept catalog store calls, for example to
// inject failures.
func WithStoreWrapper(wrap func(catalog.Store) catalog.Store) EnvOption {
	return func(cfg *envConfig) { cfg.wrapStore = wrap }
}

// WithConfig adjusts the application config before the router is built.
func WithConfig(mutate func(*app.Config)) EnvOption {
	return func(cfg *envConfig) { cfg.mutateCfg = mutate }
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	options := envConfig{}
	for _, opt := range opts {
		opt(&options)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	catalogStore, err := services.NewCatalogStore(db)
	require.NoError(t, err)

	var store catalog.Store = catalogStore
	if options.wrapStore != nil {
		store = options.wrapStore(store)
	}

	env := &Env{T: t, DB: db, Store: store}

	if !options.noCache {
		env.Redis = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: env.Redis.Addr()})
		redisStore := cache.NewRedisStoreFromClient(client, "artisan:")
		t.Cleanup(func() { _ = redisStore.Close() })
		env.Cache = redisStore
	}

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 5000},
		Cache: app.CacheConfig{
			Enabled:          !options.noCache,
			OperationTimeout: time.Second,
			Catalog:          app.CatalogCacheConfig{TTL: catalog.DefaultTTL},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true, ProbeTimeout: time.Second},
		},
	}
	if options.mutateCfg != nil {
		options.mutateCfg(cfg)
	}

	env.Catalog, err = catalog.New(store, env.Cache, cfg.Cache.CatalogOptions()...)
	require.NoError(t, err)

	cacheBackend := "none"
	if env.Cache != nil {
		cacheBackend = "redis"
	}
	env.Monitoring, err = monitoring.NewModule(monitoring.Options{CacheBackend: cacheBackend})
	require.NoError(t, err)
	monitoring.SetModule(env.Monitoring)

	health := env.Monitoring.Health()
	health.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	health.RegisterReadiness(checks.Database(db, time.Second))
	if env.Cache != nil {
		health.RegisterReadiness(checks.Cache("redis", env.Cache, time.Second))
	}

	env.Router, err = api.NewRouter(cfg, api.Dependencies{
		Catalog:    env.Catalog,
		Monitoring: env.Monitoring,
	})
	require.NoError(t, err)

	return env
}

// Request issues an HTTP request against the router. body is JSON encoded
// unless it is nil.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	e.Router.ServeHTTP(recorder, req)
	return recorder
}

// CachedKey reports whether the cache currently holds key (without prefix).
func (e *Env) CachedKey(key string) bool {
	e.T.Helper()
	if e.Redis == nil {
		return false
	}
	return e.Redis.Exists("artisan:" + key)
}

// CategoryID returns the id of the seeded category with the given name.
func (e *Env) CategoryID(name string) string {
	e.T.Helper()

	var id string
	require.NoError(e.T, e.DB.Table("categories").Select("id").Where("name = ?", name).Scan(&id).Error)
	require.NotEmpty(e.T, id, "category %q not seeded", name)
	return id
}

// DecodeInto unmarshals the recorder body into dest.
func DecodeInto(t *testing.T, recorder *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), dest), recorder.Body.String())
}

// ErrorBody mirrors the JSON error envelope.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DecodeError unmarshals an error response.
func DecodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	DecodeInto(t, recorder, &body)
	return body
}
