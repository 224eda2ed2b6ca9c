package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type statStore struct {
	catalog      sync.Map     // string -> *catalogStats
	maintenance  sync.Map     // string -> *maintenanceStats
	breakerState atomic.Value // string
	rateLimited  atomic.Uint64
}

func newStatStore() *statStore {
	store := &statStore{}
	store.breakerState.Store(BreakerClosed)
	return store
}

func (s *statStore) summary() Summary {
	breaker, _ := s.breakerState.Load().(string)
	return Summary{
		GeneratedAt: time.Now(),
		Catalog:     s.cloneCatalog(),
		Cache: CacheSummary{
			BreakerState: breaker,
		},
		RateLimited: s.rateLimited.Load(),
		Maintenance: MaintenanceSummary{
			Jobs: s.cloneMaintenance(),
		},
	}
}

func (s *statStore) cloneCatalog() []CatalogSummary {
	summaries := []CatalogSummary{}
	s.catalog.Range(func(key, value any) bool {
		summaries = append(summaries, value.(*catalogStats).snapshot(key.(string)))
		return true
	})
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Resource < summaries[j].Resource })
	return summaries
}

func (s *statStore) cloneMaintenance() []MaintenanceJobSummary {
	summaries := []MaintenanceJobSummary{}
	s.maintenance.Range(func(key, value any) bool {
		job := key.(string)
		stats := value.(*maintenanceStats)
		summaries = append(summaries, stats.snapshot(job))
		return true
	})
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Job < summaries[j].Job })
	return summaries
}

func (s *statStore) catalogEntry(resource string) *catalogStats {
	value, ok := s.catalog.Load(resource)
	if ok {
		return value.(*catalogStats)
	}
	actual, _ := s.catalog.LoadOrStore(resource, &catalogStats{})
	return actual.(*catalogStats)
}

func (s *statStore) maintenanceEntry(job string) *maintenanceStats {
	value, ok := s.maintenance.Load(job)
	if ok {
		return value.(*maintenanceStats)
	}
	stats := &maintenanceStats{}
	actual, _ := s.maintenance.LoadOrStore(job, stats)
	return actual.(*maintenanceStats)
}

type catalogStats struct {
	hits        atomic.Uint64
	misses      atomic.Uint64
	unavailable atomic.Uint64
	corrupt     atomic.Uint64

	stored         atomic.Uint64
	skippedEmpty   atomic.Uint64
	populateFailed atomic.Uint64

	invalidated           atomic.Uint64
	invalidationFailed    atomic.Uint64
	lastInvalidationError atomic.Value // string
}

func (c *catalogStats) recordLookup(outcome string) {
	switch outcome {
	case "hit":
		c.hits.Add(1)
	case "miss", "disabled":
		c.misses.Add(1)
	case "unavailable":
		c.unavailable.Add(1)
	case "corrupt":
		c.corrupt.Add(1)
	}
}

func (c *catalogStats) recordPopulate(outcome string) {
	switch outcome {
	case "stored":
		c.stored.Add(1)
	case "skipped_empty":
		c.skippedEmpty.Add(1)
	case "failed":
		c.populateFailed.Add(1)
	}
}

func (c *catalogStats) recordInvalidation(outcome, message string) {
	switch outcome {
	case "deleted", "disabled":
		c.invalidated.Add(1)
	default:
		c.invalidationFailed.Add(1)
		c.lastInvalidationError.Store(message)
	}
}

func (c *catalogStats) snapshot(resource string) CatalogSummary {
	lastErr, _ := c.lastInvalidationError.Load().(string)
	hits := c.hits.Load()
	lookups := hits + c.misses.Load() + c.unavailable.Load() + c.corrupt.Load()

	var ratio float64
	if lookups > 0 {
		ratio = float64(hits) / float64(lookups)
	}

	return CatalogSummary{
		Resource:              resource,
		Hits:                  hits,
		Misses:                c.misses.Load(),
		Unavailable:           c.unavailable.Load(),
		Corrupt:               c.corrupt.Load(),
		HitRatio:              ratio,
		Stored:                c.stored.Load(),
		SkippedEmpty:          c.skippedEmpty.Load(),
		PopulateFailures:      c.populateFailed.Load(),
		Invalidations:         c.invalidated.Load(),
		InvalidationFailures:  c.invalidationFailed.Load(),
		LastInvalidationError: lastErr,
	}
}

type maintenanceStats struct {
	lastStatus           atomic.Value // string
	lastError            atomic.Value // string
	lastRun              atomic.Int64 // unix nano
	lastDuration         atomic.Int64 // nanoseconds
	consecutiveFailures  atomic.Uint64
	totalRuns            atomic.Uint64
	lastSuccessfulRun    atomic.Int64
	consecutiveSuccesses atomic.Uint64
}

func (m *maintenanceStats) snapshot(job string) MaintenanceJobSummary {
	status, _ := m.lastStatus.Load().(string)
	errMsg, _ := m.lastError.Load().(string)

	summary := MaintenanceJobSummary{
		Job:                 job,
		LastStatus:          status,
		LastDuration:        time.Duration(m.lastDuration.Load()),
		LastError:           errMsg,
		ConsecutiveFailures: m.consecutiveFailures.Load(),
		ConsecutiveSuccess:  m.consecutiveSuccesses.Load(),
		TotalRuns:           m.totalRuns.Load(),
	}
	if ts := m.lastRun.Load(); ts > 0 {
		summary.LastRunAt = time.Unix(0, ts)
	}
	if ts := m.lastSuccessfulRun.Load(); ts > 0 {
		summary.LastSuccessAt = time.Unix(0, ts)
	}
	return summary
}

func (m *maintenanceStats) record(result, message string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	now := time.Now()
	m.lastStatus.Store(result)
	m.lastError.Store(message)
	m.lastRun.Store(now.UnixNano())
	m.lastDuration.Store(int64(duration))
	m.totalRuns.Add(1)

	switch result {
	case "success":
		m.consecutiveFailures.Store(0)
		m.consecutiveSuccesses.Add(1)
		m.lastSuccessfulRun.Store(now.UnixNano())
	default:
		m.consecutiveFailures.Add(1)
		m.consecutiveSuccesses.Store(0)
	}
}
