package catalog

import (
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/artisan/pkg/logger"
)

const (
	// DefaultTTL is how long a repopulated list stays in the cache.
	DefaultTTL = time.Hour

	// DefaultStoreTimeout bounds a store load shared by concurrent misses.
	DefaultStoreTimeout = 30 * time.Second
)

type options struct {
	ttl          time.Duration
	cacheTimeout time.Duration
	storeTimeout time.Duration
	log          *zap.Logger
	now          func() time.Time
}

// Option customises readers, invalidators and the Catalog facade.
type Option func(*options)

// WithTTL overrides the lifetime of repopulated entries. Non-positive values
// keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCacheTimeout bounds every individual cache round trip. A timed out
// lookup is handled like any other cache failure.
func WithCacheTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.cacheTimeout = timeout
		}
	}
}

// WithStoreTimeout bounds a store load. The load is detached from the request
// that started it, so this is the only limit on how long it may run.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.storeTimeout = timeout
		}
	}
}

// WithLogger sets the logger used for swallowed cache failures.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		ttl:          DefaultTTL,
		storeTimeout: DefaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.log == nil {
		o.log = logger.WithModule("catalog")
	}
	return o
}
