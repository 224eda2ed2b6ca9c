package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/charlesng35/artisan/internal/cache"
	"github.com/charlesng35/artisan/internal/monitoring"
)

var (
	// ErrStoreUnavailable wraps every failure of the source of truth. It is
	// never absorbed by the reader.
	ErrStoreUnavailable = errors.New("catalog: store unavailable")

	// ErrSerialization marks cached payloads that could not be decoded.
	ErrSerialization = errors.New("catalog: cached payload could not be decoded")
)

// Loader queries the source of truth for a full list in canonical order.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Reader serves one resource list cache-aside: the cache is consulted first,
// a miss falls through to the store, and a non-empty store result is written
// back with the configured TTL. Cache failures never fail a read.
type Reader[T any] struct {
	resource Resource
	key      string
	cache    cache.Store
	load     Loader[T]
	opts     options
	group    singleflight.Group
}

type loadResult[T any] struct {
	records  []T
	populate PopulateResult
}

// NewReader builds a reader for resource. A nil cache store disables caching
// and every read goes to the loader.
func NewReader[T any](resource Resource, store cache.Store, load Loader[T], opts ...Option) (*Reader[T], error) {
	key, err := resource.Key()
	if err != nil {
		return nil, err
	}
	if load == nil {
		return nil, fmt.Errorf("catalog: loader required for %s", resource)
	}
	return &Reader[T]{
		resource: resource,
		key:      key,
		cache:    store,
		load:     load,
		opts:     buildOptions(opts),
	}, nil
}

// Resource returns the list this reader serves.
func (r *Reader[T]) Resource() Resource {
	return r.resource
}

// List returns the current list for the resource.
func (r *Reader[T]) List(ctx context.Context) ([]T, error) {
	records, _, err := r.Fetch(ctx)
	return records, err
}

// Fetch is List with a trace of the cache interactions it performed.
func (r *Reader[T]) Fetch(ctx context.Context) ([]T, Trace, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	trace := Trace{Resource: r.resource}

	records, lookup := r.lookup(ctx)
	trace.Lookup = lookup
	monitoring.RecordCatalogLookup(r.resource.String(), string(lookup.Status))
	if lookup.Status == LookupHit {
		trace.Source = SourceCache
		return records, trace, nil
	}

	// The shared load outlives any single caller: a waiter that gives up must
	// not fail the others still waiting on the same miss.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(r.key, func() (any, error) {
		lctx, cancel := boundedContext(loadCtx, r.opts.storeTimeout)
		defer cancel()
		return r.loadAndPopulate(lctx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, trace, fmt.Errorf("%w: list %s: %w", ErrStoreUnavailable, r.resource, ctx.Err())
	}
	if res.Err != nil {
		return nil, trace, res.Err
	}
	result := res.Val.(loadResult[T])
	trace.Source = SourceStore
	trace.Populate = result.populate
	trace.Shared = res.Shared
	if res.Shared {
		return slices.Clone(result.records), trace, nil
	}
	return result.records, trace, nil
}

func (r *Reader[T]) lookup(ctx context.Context) ([]T, LookupResult) {
	if r.cache == nil {
		return nil, LookupResult{Status: LookupDisabled}
	}

	cctx, cancel := r.cacheContext(ctx)
	raw, found, err := r.cache.Get(cctx, r.key)
	cancel()
	if err != nil {
		r.opts.log.Warn("catalog cache read failed, falling back to store",
			zap.String("resource", r.resource.String()),
			zap.Error(err),
		)
		return nil, LookupResult{Status: LookupUnavailable, Err: err}
	}
	if !found {
		return nil, LookupResult{Status: LookupMiss}
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrSerialization, r.key, err)
		r.opts.log.Warn("catalog cache payload discarded", zap.String("resource", r.resource.String()), zap.Error(err))
		return nil, LookupResult{Status: LookupCorrupt, Err: err}
	}
	if len(records) == 0 {
		// Empty lists are never written, so an empty payload came from elsewhere.
		err := fmt.Errorf("%w: %s: empty payload", ErrSerialization, r.key)
		r.opts.log.Warn("catalog cache payload discarded", zap.String("resource", r.resource.String()), zap.Error(err))
		return nil, LookupResult{Status: LookupCorrupt, Err: err}
	}
	return records, LookupResult{Status: LookupHit}
}

func (r *Reader[T]) loadAndPopulate(ctx context.Context) (loadResult[T], error) {
	started := r.opts.now()
	records, err := r.load(ctx)
	monitoring.ObserveCatalogStoreLatency(r.resource.String(), r.opts.now().Sub(started))
	if err != nil {
		return loadResult[T]{}, fmt.Errorf("%w: list %s: %w", ErrStoreUnavailable, r.resource, err)
	}

	populate := r.populate(ctx, records)
	monitoring.RecordCatalogPopulate(r.resource.String(), string(populate.Status))
	return loadResult[T]{records: records, populate: populate}, nil
}

func (r *Reader[T]) populate(ctx context.Context, records []T) PopulateResult {
	if r.cache == nil {
		return PopulateResult{Status: PopulateDisabled}
	}
	if len(records) == 0 {
		return PopulateResult{Status: PopulateSkippedEmpty}
	}

	payload, err := json.Marshal(records)
	if err != nil {
		r.opts.log.Warn("catalog cache payload encode failed", zap.String("resource", r.resource.String()), zap.Error(err))
		return PopulateResult{Status: PopulateFailed, Err: err}
	}

	cctx, cancel := r.cacheContext(ctx)
	defer cancel()
	if err := r.cache.Set(cctx, r.key, payload, r.opts.ttl); err != nil {
		r.opts.log.Warn("catalog cache write failed",
			zap.String("resource", r.resource.String()),
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return PopulateResult{Status: PopulateFailed, Err: err}
	}
	return PopulateResult{Status: PopulateStored}
}

func (r *Reader[T]) cacheContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return boundedContext(ctx, r.opts.cacheTimeout)
}

func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
