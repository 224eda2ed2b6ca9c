package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	apiLatency           *prometheus.HistogramVec
	catalogLookups       *prometheus.CounterVec
	catalogPopulations   *prometheus.CounterVec
	catalogInvalidations *prometheus.CounterVec
	catalogStoreLatency  *prometheus.HistogramVec
	cacheBreakerState    prometheus.Gauge
	cacheBackend         *prometheus.GaugeVec
	rateLimited          *prometheus.CounterVec
	maintenanceRuns      *prometheus.CounterVec
	maintenanceDuration  *prometheus.HistogramVec
	maintenanceLastRun   *prometheus.GaugeVec
}

func newCollectors(namespace string) *collectors {
	buckets := prometheus.DefBuckets

	return &collectors{
		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_latency_seconds",
				Help:      "API endpoint latency",
				Buckets:   buckets,
			},
			[]string{"method", "path", "status"},
		),
		catalogLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_cache_lookups_total",
				Help:      "Catalog list cache lookups by outcome (hit, miss, unavailable, corrupt, disabled)",
			},
			[]string{"resource", "outcome"},
		),
		catalogPopulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_cache_populations_total",
				Help:      "Catalog list cache repopulations by outcome (stored, skipped_empty, failed, disabled)",
			},
			[]string{"resource", "outcome"},
		),
		catalogInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_cache_invalidations_total",
				Help:      "Catalog list cache invalidations by outcome",
			},
			[]string{"resource", "outcome"},
		),
		catalogStoreLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_store_list_seconds",
				Help:      "Latency of catalog list queries that reached the database",
				Buckets:   buckets,
			},
			[]string{"resource"},
		),
		cacheBreakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_breaker_state",
				Help:      "Cache circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
		),
		cacheBackend: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_cache_backend_info",
				Help:      "Store behind the catalog cache; the active backend reports 1",
			},
			[]string{"backend"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
		maintenanceRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "maintenance_runs_total",
				Help:      "Maintenance job executions",
			},
			[]string{"job", "result"},
		),
		maintenanceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "maintenance_duration_seconds",
				Help:      "Maintenance job duration",
				Buckets:   buckets,
			},
			[]string{"job"},
		),
		maintenanceLastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "maintenance_last_success_timestamp",
				Help:      "Timestamp of the last successful maintenance run (seconds since epoch)",
			},
			[]string{"job"},
		),
	}
}

func (c *collectors) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.apiLatency,
		c.catalogLookups,
		c.catalogPopulations,
		c.catalogInvalidations,
		c.catalogStoreLatency,
		c.cacheBreakerState,
		c.cacheBackend,
		c.rateLimited,
		c.maintenanceRuns,
		c.maintenanceDuration,
		c.maintenanceLastRun,
	}
}

// observeDuration records a duration in seconds on the supplied histogram observer.
func observeDuration(observer prometheus.Observer, d time.Duration) {
	if observer == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	observer.Observe(d.Seconds())
}
