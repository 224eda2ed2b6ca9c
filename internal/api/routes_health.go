package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/artisan/internal/app"
	"github.com/charlesng35/artisan/internal/handlers"
	"github.com/charlesng35/artisan/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, mon *monitoring.Module) {
	var handler *handlers.HealthHandler
	if cfg.Monitoring.Health.Enabled && mon != nil {
		handler = handlers.NewHealthHandler(mon.Health(), cfg.Monitoring.Health.ProbeTimeout)
	}

	if handler == nil {
		for _, router := range []gin.IRouter{r, r.Group("/api")} {
			router.GET("/health", handlers.DisabledHealth)
			router.GET("/health/live", handlers.DisabledHealth)
			router.GET("/health/ready", handlers.DisabledHealth)
		}
		return
	}

	registerHealthEndpoints(r, handler)
	registerHealthEndpoints(r.Group("/api"), handler)
}

func registerHealthEndpoints(router gin.IRouter, handler *handlers.HealthHandler) {
	router.GET("/health", handler.Overall)
	router.GET("/health/live", handler.Live)
	router.GET("/health/ready", handler.Ready)
}
