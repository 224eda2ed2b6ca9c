package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/artisan/internal/cache"
	"github.com/charlesng35/artisan/internal/monitoring"
)

// Invalidator drops cached lists after the store acknowledged a write.
type Invalidator struct {
	cache cache.Store
	opts  options
}

// NewInvalidator returns an invalidator for store. A nil store makes every
// invalidation a no-op.
func NewInvalidator(store cache.Store, opts ...Option) *Invalidator {
	return &Invalidator{cache: store, opts: buildOptions(opts)}
}

// Invalidate deletes the cached list of resource. Failures are logged and
// reported in the result; they never fail the caller's write.
func (i *Invalidator) Invalidate(ctx context.Context, resource Resource) InvalidateResult {
	result := InvalidateResult{Resource: resource}
	key, err := resource.Key()
	if err != nil {
		result.Status = InvalidateFailed
		result.Err = err
		return result
	}
	if i.cache == nil {
		result.Status = InvalidateDisabled
		return result
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cctx, cancel := boundedContext(ctx, i.opts.cacheTimeout)
	defer cancel()
	if err := i.cache.Delete(cctx, key); err != nil {
		i.opts.log.Error("catalog cache invalidation failed, stale entry may be served until ttl expiry",
			zap.String("resource", resource.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		result.Status = InvalidateFailed
		result.Err = err
	} else {
		result.Status = InvalidateDeleted
	}
	message := ""
	if result.Err != nil {
		message = result.Err.Error()
	}
	monitoring.RecordCatalogInvalidation(resource.String(), string(result.Status), message)
	return result
}

// InvalidateAll drops every cached list.
func (i *Invalidator) InvalidateAll(ctx context.Context) []InvalidateResult {
	results := make([]InvalidateResult, 0, len(Resources()))
	for _, r := range Resources() {
		results = append(results, i.Invalidate(ctx, r))
	}
	return results
}
