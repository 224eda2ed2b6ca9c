package monitoring

import (
	"strings"
	"time"
)

// Breaker states reported by SetCacheBreakerState.
const (
	BreakerClosed   = "closed"
	BreakerHalfOpen = "half-open"
	BreakerOpen     = "open"
)

// ObserveAPILatency captures the HTTP request latency for the supplied route.
func ObserveAPILatency(method, path, status string, duration time.Duration) {
	module := ensureModule()
	if module == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "UNKNOWN"
	}
	path = sanitizePath(path)
	if path == "" {
		path = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	module.metrics.apiLatency.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordCatalogLookup counts a catalog list cache lookup.
func RecordCatalogLookup(resource, outcome string) {
	module := ensureModule()
	if module == nil {
		return
	}
	resource, outcome = normalizeLabel(resource), normalizeLabel(outcome)
	module.metrics.catalogLookups.WithLabelValues(resource, outcome).Inc()
	module.stats.catalogEntry(resource).recordLookup(outcome)
}

// RecordCatalogPopulate counts an attempt to write a list back to the cache.
func RecordCatalogPopulate(resource, outcome string) {
	module := ensureModule()
	if module == nil {
		return
	}
	resource, outcome = normalizeLabel(resource), normalizeLabel(outcome)
	module.metrics.catalogPopulations.WithLabelValues(resource, outcome).Inc()
	module.stats.catalogEntry(resource).recordPopulate(outcome)
}

// RecordCatalogInvalidation counts a cache invalidation. message carries the
// failure reason, if any.
func RecordCatalogInvalidation(resource, outcome, message string) {
	module := ensureModule()
	if module == nil {
		return
	}
	resource, outcome = normalizeLabel(resource), normalizeLabel(outcome)
	module.metrics.catalogInvalidations.WithLabelValues(resource, outcome).Inc()
	module.stats.catalogEntry(resource).recordInvalidation(outcome, strings.TrimSpace(message))
}

// ObserveCatalogStoreLatency records how long a list query against the
// database took.
func ObserveCatalogStoreLatency(resource string, duration time.Duration) {
	module := ensureModule()
	if module == nil {
		return
	}
	observeDuration(module.metrics.catalogStoreLatency.WithLabelValues(normalizeLabel(resource)), duration)
}

// SetCacheBreakerState publishes the cache circuit breaker state.
func SetCacheBreakerState(state string) {
	module := ensureModule()
	if module == nil {
		return
	}
	state = normalizeLabel(state)
	var value float64
	switch state {
	case BreakerHalfOpen:
		value = 1
	case BreakerOpen:
		value = 2
	}
	module.metrics.cacheBreakerState.Set(value)
	module.stats.breakerState.Store(state)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(path string) {
	module := ensureModule()
	if module == nil {
		return
	}
	path = sanitizePath(path)
	if path == "" {
		path = "unknown"
	}
	module.metrics.rateLimited.WithLabelValues(path).Inc()
	module.stats.rateLimited.Add(1)
}

// RecordMaintenanceRun records the completion of a maintenance job.
func RecordMaintenanceRun(job, result, message string, duration time.Duration) {
	module := ensureModule()
	if module == nil {
		return
	}
	jobID := normalizeLabel(job)
	result = normalizeLabel(result)
	module.metrics.maintenanceRuns.WithLabelValues(jobID, result).Inc()
	observeDuration(module.metrics.maintenanceDuration.WithLabelValues(jobID), duration)
	if result == "success" {
		module.metrics.maintenanceLastRun.WithLabelValues(jobID).Set(float64(time.Now().Unix()))
	}
	stats := module.stats.maintenanceEntry(jobID)
	stats.record(result, strings.TrimSpace(message), duration)
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}

func sanitizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "/" {
		return "root"
	}
	path = strings.Trim(path, "/")
	return strings.ReplaceAll(path, " ", "_")
}
