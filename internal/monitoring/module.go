package monitoring

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configure a Module.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "artisan".
	Namespace string
	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool
	// CacheBackend names the store behind the catalog cache ("redis",
	// "database" or "none").
	CacheBackend string
}

// Module holds the catalog service's metrics registry, its health probes and
// the counters behind /api/monitoring/summary.
type Module struct {
	registry     *prometheus.Registry
	metrics      *collectors
	stats        *statStore
	health       *HealthManager
	cacheBackend string
}

// NewModule builds a module on a private registry so tests and the server
// never share collector state.
func NewModule(opts Options) (*Module, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "artisan"
	}
	backend := normalizeLabel(opts.CacheBackend)
	if backend == "unknown" {
		backend = "none"
	}

	metrics := newCollectors(namespace)
	registered := metrics.all()
	if opts.RuntimeCollectors {
		registered = append(registered,
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	}

	registry := prometheus.NewRegistry()
	for _, collector := range registered {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	metrics.cacheBackend.WithLabelValues(backend).Set(1)

	return &Module{
		registry:     registry,
		metrics:      metrics,
		stats:        newStatStore(),
		health:       NewHealthManager(),
		cacheBackend: backend,
	}, nil
}

// Handler serves the module's registry in the Prometheus text format.
func (m *Module) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Summary reports per-list cache activity, the cache backend and breaker
// state, rejected requests and maintenance runs.
func (m *Module) Summary() Summary {
	if m == nil || m.stats == nil {
		return Summary{GeneratedAt: time.Now()}
	}
	summary := m.stats.summary()
	summary.Cache.Backend = m.cacheBackend
	return summary
}

// CacheBackend returns the backend name the module was built with.
func (m *Module) CacheBackend() string {
	if m == nil {
		return ""
	}
	return m.cacheBackend
}

func (m *Module) Health() *HealthManager {
	if m == nil {
		return nil
	}
	return m.health
}

var globalModule atomic.Pointer[Module]

// SetModule installs the module the package-level Record* helpers report to.
// Until one is set those helpers are no-ops.
func SetModule(module *Module) {
	if module == nil {
		return
	}
	globalModule.Store(module)
}

func ensureModule() *Module {
	return globalModule.Load()
}
