package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store is the shared key-value cache used by the catalog reader, the
// invalidator and the rate limiter. Get reports a miss as (nil, false, nil);
// every other failure is returned as an error that matches ErrUnavailable.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Ping(ctx context.Context) error
}

// ErrUnavailable marks failures talking to the cache backend (connection
// refused, timeout, protocol error, open circuit breaker).
var ErrUnavailable = errors.New("cache: unavailable")

// OpError describes a failed cache operation.
type OpError struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func opError(backend, op, key string, err error) error {
	if err == nil {
		return nil
	}
	var existing *OpError
	if errors.As(err, &existing) {
		return err
	}
	return &OpError{Backend: backend, Op: op, Key: key, Err: err}
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
