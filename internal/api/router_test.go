package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/artisan/internal/app"
	"github.com/charlesng35/artisan/internal/catalog"
	"github.com/charlesng35/artisan/internal/database/testutil"
	"github.com/charlesng35/artisan/internal/middleware"
	"github.com/charlesng35/artisan/internal/monitoring"
	"github.com/charlesng35/artisan/internal/services"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	store, err := services.NewCatalogStore(db)
	require.NoError(t, err)

	cat, err := catalog.New(store, nil)
	require.NoError(t, err)
	return cat
}

func baseConfig() *app.Config {
	return &app.Config{
		Server: app.ServerConfig{Port: 5000, CORSOrigins: []string{"*"}},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true, ProbeTimeout: time.Second},
		},
	}
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(nil, Dependencies{})
	require.Error(t, err)

	_, err = NewRouter(baseConfig(), Dependencies{})
	require.ErrorContains(t, err, "catalog")
}

func TestRouter_PublicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	module, err := monitoring.NewModule(monitoring.Options{})
	require.NoError(t, err)

	router, err := NewRouter(baseConfig(), Dependencies{Catalog: newTestCatalog(t), Monitoring: module})
	require.NoError(t, err)

	rec := serve(router, http.MethodGet, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/health/ready").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/metrics").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/monitoring/summary").Code)
}

func TestRouter_DisabledMonitoring(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := baseConfig()
	cfg.Monitoring.Prometheus.Enabled = false
	cfg.Monitoring.Health.Enabled = false

	router, err := NewRouter(cfg, Dependencies{Catalog: newTestCatalog(t)})
	require.NoError(t, err)

	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/health").Code)
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metrics").Code)
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/monitoring/summary").Code)
}

func TestRouter_RateLimitApplies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rates := middleware.NewMemoryRateStore(time.Minute)
	t.Cleanup(rates.Close)

	cfg := baseConfig()
	cfg.RateLimit = app.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute}

	router, err := NewRouter(cfg, Dependencies{Catalog: newTestCatalog(t), RateStore: rates})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/categories").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/categories").Code)

	rec := serve(router, http.MethodGet, "/api/categories")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Limits are tracked per route.
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/products").Code)
}
