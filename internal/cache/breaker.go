package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/charlesng35/artisan/internal/monitoring"
	"github.com/charlesng35/artisan/pkg/logger"
)

// BreakerConfig controls when the cache circuit opens.
type BreakerConfig struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
	// OnStateChange observes transitions. Nil reports them as the catalog
	// cache breaker state.
	OnStateChange func(to gobreaker.State)
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "cache",
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// BreakerStore decorates a Store with a circuit breaker. While the circuit is
// open every call fails immediately with an error matching ErrUnavailable, so
// callers fall back to the database without waiting on cache timeouts.
type BreakerStore struct {
	next    Store
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps next. Zero config fields take their defaults.
func NewBreakerStore(next Store, cfg BreakerConfig) *BreakerStore {
	defaults := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = defaults.HalfOpenRequests
	}

	log := logger.WithModule("cache")
	threshold := cfg.FailureThreshold
	observe := cfg.OnStateChange
	if observe == nil {
		observe = func(to gobreaker.State) { monitoring.SetCacheBreakerState(to.String()) }
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a cache failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			observe(to)
			log.Warn("cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerStore{next: next, breaker: breaker}
}

// State exposes the current breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.breaker.State()
}

type getResult struct {
	value []byte
	ok    bool
}

func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		value, ok, err := s.next.Get(ctx, key)
		return getResult{value: value, ok: ok}, err
	})
	if err != nil {
		return nil, false, s.wrap("get", key, err)
	}
	res := out.(getResult)
	return res.value, res.ok, nil
}

func (s *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.next.Set(ctx, key, value, ttl)
	})
	return s.wrap("set", key, err)
}

func (s *BreakerStore) Delete(ctx context.Context, keys ...string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.next.Delete(ctx, keys...)
	})
	return s.wrap("del", "", err)
}

func (s *BreakerStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	type incrResult struct {
		count int64
		ttl   time.Duration
	}
	out, err := s.breaker.Execute(func() (interface{}, error) {
		count, ttl, err := s.next.IncrementWithTTL(ctx, key, window)
		return incrResult{count: count, ttl: ttl}, err
	})
	if err != nil {
		return 0, 0, s.wrap("incr", key, err)
	}
	res := out.(incrResult)
	return res.count, res.ttl, nil
}

// Ping bypasses the breaker so readiness probes always reach the backend.
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Unwrap returns the decorated store.
func (s *BreakerStore) Unwrap() Store {
	return s.next
}

func (s *BreakerStore) wrap(op, key string, err error) error {
	return opError("breaker", op, key, err)
}
