package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/artisan/internal/monitoring"
	"github.com/charlesng35/artisan/pkg/logger"
)

const (
	// CachePurgeJob is the job name reported to monitoring.
	CachePurgeJob = "cache_purge"

	defaultCachePurgeSpec = "@hourly"
	defaultJobTimeout     = time.Minute
)

// Expirer removes cache rows whose expiry has passed.
type Expirer interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner schedules background housekeeping such as purging expired rows
// from the database-backed cache.
type Cleaner struct {
	expirer Expirer
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger
	timeout time.Duration

	cachePurgeSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithCachePurgeSchedule overrides the cron expression for the cache purge.
func WithCachePurgeSchedule(schedule string) Option {
	return func(cleaner *Cleaner) {
		if schedule != "" {
			cleaner.cachePurgeSchedule = schedule
		}
	}
}

// NewCleaner constructs a Cleaner. A nil expirer disables the cache purge.
func NewCleaner(expirer Expirer, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		expirer:            expirer,
		now:                time.Now,
		timeout:            defaultJobTimeout,
		cachePurgeSchedule: defaultCachePurgeSpec,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one job is enabled.
func (c *Cleaner) Start() error {
	if c.expirer == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.cachePurgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.purgeCache(ctx); err != nil {
			c.log.Warn("cache purge failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %s: %w", CachePurgeJob, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used in
// tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.expirer != nil {
		errs = multierr.Append(errs, c.purgeCache(ctx))
	}
	return errs
}

func (c *Cleaner) purgeCache(ctx context.Context) error {
	start := time.Now()
	removed, err := PurgeExpiredCache(ctx, c.expirer, c.now())
	duration := time.Since(start)

	if err != nil {
		monitoring.RecordMaintenanceRun(CachePurgeJob, "failure", err.Error(), duration)
		return err
	}

	monitoring.RecordMaintenanceRun(CachePurgeJob, "success", "", duration)
	if removed > 0 {
		c.log.Debug("purged expired cache entries", zap.Int64("removed", removed))
	}
	return nil
}

// PurgeExpiredCache removes cache rows that expired before now.
func PurgeExpiredCache(ctx context.Context, expirer Expirer, now time.Time) (int64, error) {
	if expirer == nil {
		return 0, errors.New("purge cache: expirer is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	removed, err := expirer.PurgeExpired(ctx, now)
	if err != nil {
		return removed, fmt.Errorf("purge cache: %w", err)
	}
	return removed, nil
}
