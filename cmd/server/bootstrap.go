package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/artisan/internal/api"
	"github.com/charlesng35/artisan/internal/app"
	"github.com/charlesng35/artisan/internal/app/maintenance"
	"github.com/charlesng35/artisan/internal/cache"
	"github.com/charlesng35/artisan/internal/catalog"
	"github.com/charlesng35/artisan/internal/database"
	"github.com/charlesng35/artisan/internal/middleware"
	"github.com/charlesng35/artisan/internal/monitoring"
	"github.com/charlesng35/artisan/internal/monitoring/checks"
	"github.com/charlesng35/artisan/internal/services"
	"github.com/charlesng35/artisan/pkg/logger"
)

const (
	cacheBackendRedis    = "redis"
	cacheBackendDatabase = "database"
	cacheBackendNone     = "none"

	rateStoreCleanupInterval = time.Minute
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB           *gorm.DB
	Redis        *cache.RedisStore
	Cache        cache.Store
	RateCache    cache.Store
	CacheBackend string
	Catalog      *catalog.Catalog
	Monitoring   *monitoring.Module
	Cleaner      *maintenance.Cleaner
	MemoryRates  *middleware.MemoryRateStore
	RateStore    middleware.RateStore
	Router       *gin.Engine
}

// bootstrapRuntime initialises the database, cache, catalog and HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			if shutdownErr := stack.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn("partial start-up cleanup failed", zap.Error(shutdownErr))
			}
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	backend, backendName := stack.selectCache(ctx, cfg, dbStore, log)
	stack.CacheBackend = backendName
	if backend != nil {
		stack.Cache, stack.RateCache = backend, backend
		if cfg.Cache.Breaker.Enabled {
			// Separate circuits: rate limiter timeouts must not switch off the
			// catalog cache.
			stack.Cache = cache.NewBreakerStore(backend, cfg.Cache.BreakerSettings())
			stack.RateCache = cache.NewBreakerStore(backend, cfg.Cache.RateLimitBreakerSettings())
		}
	}

	catalogStore, err := services.NewCatalogStore(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise catalog store: %w", err)
	}

	catalogOpts := append(cfg.Cache.CatalogOptions(), catalog.WithLogger(logger.WithModule("catalog")))
	stack.Catalog, err = catalog.New(catalogStore, stack.Cache, catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise catalog: %w", err)
	}

	stack.Monitoring, err = monitoring.NewModule(monitoring.Options{
		RuntimeCollectors: true,
		CacheBackend:      stack.CacheBackend,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise monitoring: %w", err)
	}
	monitoring.SetModule(stack.Monitoring)
	if stack.Cache == nil {
		monitoring.SetCacheBreakerState(cacheBackendNone)
	} else {
		monitoring.SetCacheBreakerState(monitoring.BreakerClosed)
	}
	registerHealthChecks(stack, cfg)

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(dbStore,
			maintenance.WithCachePurgeSchedule(cfg.Maintenance.CachePurgeSchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.MemoryRates = middleware.NewMemoryRateStore(rateStoreCleanupInterval)
	stack.RateStore = middleware.WithFallback(middleware.NewCacheRateStore(stack.RateCache), stack.MemoryRates)

	stack.Router, err = api.NewRouter(cfg, api.Dependencies{
		Catalog:    stack.Catalog,
		Monitoring: stack.Monitoring,
		RateStore:  stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	log.Info("catalog ready",
		zap.String("cache_backend", stack.CacheBackend),
		zap.Duration("ttl", cfg.Cache.Catalog.TTL),
	)

	success = true
	return stack, nil
}

// selectCache prefers Redis and falls back to the database-backed store when
// Redis is disabled or unreachable at start-up. The returned store is not yet
// wrapped in a breaker.
func (s *runtimeStack) selectCache(ctx context.Context, cfg *app.Config, dbStore *cache.DatabaseStore, log *zap.Logger) (cache.Store, string) {
	if !cfg.Cache.Enabled {
		log.Info("catalog cache disabled")
		return nil, cacheBackendNone
	}

	var (
		store   cache.Store = dbStore
		backend             = cacheBackendDatabase
	)
	if cfg.Cache.Redis.Enabled {
		redisStore, err := cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig())
		if err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
		} else {
			s.Redis = redisStore
			store, backend = redisStore, cacheBackendRedis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	return store, backend
}

func registerHealthChecks(stack *runtimeStack, cfg *app.Config) {
	health := stack.Monitoring.Health()
	timeout := cfg.Monitoring.Health.ProbeTimeout

	health.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	health.RegisterReadiness(checks.Database(stack.DB, timeout))
	if stack.Cache != nil {
		health.RegisterReadiness(checks.Cache(stack.CacheBackend, stack.Cache, timeout))
	}
	if cfg.Maintenance.Enabled {
		health.RegisterReadiness(checks.Maintenance(0))
	}
}

// Shutdown stops background jobs and releases resources, returning every
// failure encountered.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		errs = multierr.Append(errs, s.Cleaner.RunOnce(ctx))
	}

	if s.MemoryRates != nil {
		s.MemoryRates.Close()
	}

	if s.Redis != nil {
		errs = multierr.Append(errs, s.Redis.Close())
	}

	errs = multierr.Append(errs, closeDatabase(s.DB))
	return errs
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	migrate := database.AutoMigrate
	if cfg.Database.Seed {
		migrate = database.AutoMigrateAndSeed
	}
	if err := migrate(db); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		auth = cfg.Database.Postgres
	case "mysql":
		auth = cfg.Database.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
	return dbCfg
}

func closeDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql DB for closing: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
