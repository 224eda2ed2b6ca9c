package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every call while broken is set.
type flakyStore struct {
	mu     sync.Mutex
	broken bool
	calls  int
	data   map[string][]byte
}

func newFlakyStore() *flakyStore {
	return &flakyStore{data: map[string][]byte{}}
}

func (s *flakyStore) fail() error {
	s.calls++
	if s.broken {
		return errors.New("connection refused")
	}
	return nil
}

func (s *flakyStore) setBroken(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = v
}

func (s *flakyStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *flakyStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, false, err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *flakyStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.data[key] = value
	return nil
}

func (s *flakyStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *flakyStore) IncrementWithTTL(_ context.Context, _ string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, 0, err
	}
	return 1, window, nil
}

func (s *flakyStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail()
}

func TestBreakerStorePassesThroughWhenHealthy(t *testing.T) {
	inner := newFlakyStore()
	store := NewBreakerStore(inner, BreakerConfig{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, gobreaker.StateClosed, store.State())
}

func TestBreakerStoreOpensAfterConsecutiveFailures(t *testing.T) {
	inner := newFlakyStore()
	inner.setBroken(true)
	store := NewBreakerStore(inner, BreakerConfig{FailureThreshold: 3, OpenTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := store.Get(ctx, "k")
		require.ErrorIs(t, err, ErrUnavailable)
	}
	require.Equal(t, gobreaker.StateOpen, store.State())

	_, _, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, 3, inner.callCount(), "open circuit must not reach the backend")
}

func TestBreakerStoreCustomStateObserver(t *testing.T) {
	inner := newFlakyStore()
	inner.setBroken(true)

	var (
		mu          sync.Mutex
		transitions []gobreaker.State
	)
	store := NewBreakerStore(inner, BreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
		OnStateChange: func(to gobreaker.State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, to)
		},
	})

	for i := 0; i < 2; i++ {
		_, _, err := store.IncrementWithTTL(context.Background(), "ratelimit:k", time.Minute)
		require.ErrorIs(t, err, ErrUnavailable)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestBreakerStoreRecoversAfterTimeout(t *testing.T) {
	inner := newFlakyStore()
	inner.setBroken(true)
	store := NewBreakerStore(inner, BreakerConfig{FailureThreshold: 1, OpenTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.Equal(t, gobreaker.StateOpen, store.State())

	inner.setBroken(false)
	require.Eventually(t, func() bool {
		return store.Set(ctx, "k", []byte("v"), time.Minute) == nil
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, gobreaker.StateClosed, store.State())
}

func TestBreakerStorePingBypassesBreaker(t *testing.T) {
	inner := newFlakyStore()
	inner.setBroken(true)
	store := NewBreakerStore(inner, BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})

	require.Error(t, store.Delete(context.Background(), "k"))
	require.Equal(t, gobreaker.StateOpen, store.State())

	inner.setBroken(false)
	require.NoError(t, store.Ping(context.Background()))
	require.Same(t, inner, store.Unwrap())
}
