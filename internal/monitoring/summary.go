package monitoring

import "time"

// Summary surfaces aggregated runtime data for operators.
type Summary struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Catalog     []CatalogSummary   `json:"catalog"`
	Cache       CacheSummary       `json:"cache"`
	RateLimited uint64             `json:"rate_limited"`
	Maintenance MaintenanceSummary `json:"maintenance"`
}

// CatalogSummary aggregates cache behaviour for one catalog list.
type CatalogSummary struct {
	Resource              string  `json:"resource"`
	Hits                  uint64  `json:"hits"`
	Misses                uint64  `json:"misses"`
	Unavailable           uint64  `json:"unavailable"`
	Corrupt               uint64  `json:"corrupt"`
	HitRatio              float64 `json:"hit_ratio"`
	Stored                uint64  `json:"stored"`
	SkippedEmpty          uint64  `json:"skipped_empty"`
	PopulateFailures      uint64  `json:"populate_failures"`
	Invalidations         uint64  `json:"invalidations"`
	InvalidationFailures  uint64  `json:"invalidation_failures"`
	LastInvalidationError string  `json:"last_invalidation_error,omitempty"`
}

type CacheSummary struct {
	Backend      string `json:"backend"`
	BreakerState string `json:"breaker_state"`
}

type MaintenanceSummary struct {
	Jobs []MaintenanceJobSummary `json:"jobs"`
}

type MaintenanceJobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	ConsecutiveSuccess  uint64        `json:"consecutive_success"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
}

// Snapshot returns a point-in-time summary from the current module when configured.
func Snapshot() Summary {
	if module := ensureModule(); module != nil {
		return module.Summary()
	}
	return Summary{GeneratedAt: time.Now()}
}
