package checks

import (
	"context"
	"time"

	"github.com/charlesng35/artisan/internal/monitoring"
)

const defaultCacheTimeout = 2 * time.Second

// Pinger is the minimal interface required to probe the cache backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache returns a readiness probe for the catalog cache. An unreachable cache
// is reported as degraded because list reads fall back to the database.
func Cache(backend string, client Pinger, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if client == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "cache disabled, serving from database",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultCacheTimeout))
		defer cancel()

		if err := client.Ping(probeCtx); err != nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  backend + ": " + err.Error(),
				Duration: time.Since(start),
			}
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  backend,
			Duration: time.Since(start),
		}
	})
}
