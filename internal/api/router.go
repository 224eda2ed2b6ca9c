package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/artisan/internal/app"
	"github.com/charlesng35/artisan/internal/catalog"
	"github.com/charlesng35/artisan/internal/handlers"
	"github.com/charlesng35/artisan/internal/middleware"
	"github.com/charlesng35/artisan/internal/monitoring"
)

// Dependencies are the long-lived services the router exposes over HTTP.
type Dependencies struct {
	Catalog    *catalog.Catalog
	Monitoring *monitoring.Module
	RateStore  middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers the
// storefront routes.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog must be provided")
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins...))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(deps.RateStore, cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	registerHealthRoutes(r, cfg, deps.Monitoring)
	registerMetricsRoute(r, cfg, deps.Monitoring)

	api := r.Group("/api")
	registerCatalogRoutes(api, handlers.NewCatalogHandler(deps.Catalog))
	registerCacheRoutes(api, handlers.NewCacheHandler(deps.Catalog))
	registerMonitoringRoutes(api, handlers.NewMonitoringHandler(
		deps.Monitoring,
		cfg.Monitoring.Prometheus.Enabled,
		cfg.Monitoring.Prometheus.Endpoint,
	))

	r.NoRoute(middleware.NotFoundHandler)
	r.NoMethod(middleware.MethodNotAllowedHandler)

	return r, nil
}
