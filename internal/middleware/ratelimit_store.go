package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/artisan/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// MemoryRateStore provides process-local rate limiting. It is concurrency-safe.
type MemoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateStore constructs an in-memory rate store that drops expired
// counters every cleanupEvery until Close is called.
func NewMemoryRateStore(cleanupEvery time.Duration) *MemoryRateStore {
	if cleanupEvery <= 0 {
		cleanupEvery = time.Minute
	}
	store := &MemoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: time.Now,
		stop:  make(chan struct{}),
	}

	go store.cleanupLoop(cleanupEvery)
	return store
}

func (s *MemoryRateStore) cleanupLoop(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			s.purge()
		}
	}
}

func (s *MemoryRateStore) purge() {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, counter := range s.data {
		if now.After(counter.windowEnd) {
			delete(s.data, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (s *MemoryRateStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.data[key]
	if !ok || now.After(counter.windowEnd) {
		counter = &memoryCounter{
			count:     0,
			windowEnd: now.Add(window),
		}
		s.data[key] = counter
	}

	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

// storeRateStore keeps counters in the shared cache so limits hold across
// instances.
type storeRateStore struct {
	store cache.Store
}

// NewCacheRateStore builds a RateStore on the cache's IncrementWithTTL.
func NewCacheRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &storeRateStore{store: store}
}

func (s *storeRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}

// fallbackRateStore counts in primary and switches to fallback for the
// requests where primary fails.
type fallbackRateStore struct {
	primary  RateStore
	fallback RateStore
}

// WithFallback returns a RateStore that uses fallback whenever primary errors.
func WithFallback(primary, fallback RateStore) RateStore {
	switch {
	case primary == nil:
		return fallback
	case fallback == nil:
		return primary
	}
	return &fallbackRateStore{primary: primary, fallback: fallback}
}

func (s *fallbackRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	count, ttl, err := s.primary.Increment(ctx, key, window)
	if err == nil {
		return count, ttl, nil
	}
	return s.fallback.Increment(ctx, key, window)
}
