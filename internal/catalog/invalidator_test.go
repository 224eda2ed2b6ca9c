package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInvalidatorDeletesKey(t *testing.T) {
	c := newFakeCache()
	c.put("v1:all_products", []byte(`[{"id":"p"}]`))
	c.put("v1:all_categories", []byte(`[{"id":"c"}]`))

	result := NewInvalidator(c).Invalidate(context.Background(), ResourceProducts)
	require.Equal(t, InvalidateDeleted, result.Status)
	require.True(t, result.OK())

	_, ok := c.raw("v1:all_products")
	require.False(t, ok)
	_, ok = c.raw("v1:all_categories")
	require.True(t, ok)
}

func TestInvalidatorReportsFailureWithoutError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	c := newFakeCache()
	c.failDel = true

	result := NewInvalidator(c, WithLogger(zap.New(core))).Invalidate(context.Background(), ResourceCategories)
	require.Equal(t, InvalidateFailed, result.Status)
	require.False(t, result.OK())
	require.ErrorIs(t, result.Err, errCacheDown)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "categories", entries[0].ContextMap()["resource"])
	require.Equal(t, "v1:all_categories", entries[0].ContextMap()["key"])
}

func TestInvalidatorUnknownResource(t *testing.T) {
	c := newFakeCache()
	result := NewInvalidator(c).Invalidate(context.Background(), Resource("orders"))
	require.Equal(t, InvalidateFailed, result.Status)
	require.ErrorIs(t, result.Err, ErrUnknownResource)
	require.Zero(t, c.deletes)
}

func TestInvalidatorWithoutCache(t *testing.T) {
	result := NewInvalidator(nil).Invalidate(context.Background(), ResourceProducts)
	require.Equal(t, InvalidateDisabled, result.Status)
	require.True(t, result.OK())
}

func TestInvalidateAll(t *testing.T) {
	c := newFakeCache()
	c.put("v1:all_products", []byte(`[1]`))
	c.put("v1:all_categories", []byte(`[1]`))

	results := NewInvalidator(c).InvalidateAll(context.Background())
	require.Len(t, results, 2)
	for _, r := range results {
		require.Equal(t, InvalidateDeleted, r.Status)
	}
	require.Empty(t, c.values)
}
