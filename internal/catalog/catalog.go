package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/charlesng35/artisan/internal/cache"
	"github.com/charlesng35/artisan/internal/models"
)

// Catalog serves list reads through the cache and applies writes to the store
// followed by synchronous invalidation of every list the write affects.
type Catalog struct {
	store       Store
	products    *Reader[models.Product]
	categories  *Reader[models.Category]
	invalidator *Invalidator
}

// New wires the readers and the invalidator around store. cacheStore may be
// nil, in which case every read is served by store.
func New(store Store, cacheStore cache.Store, opts ...Option) (*Catalog, error) {
	if store == nil {
		return nil, errors.New("catalog: store required")
	}
	if err := ValidateKeys(); err != nil {
		return nil, err
	}

	products, err := NewReader(ResourceProducts, cacheStore, store.ListProducts, opts...)
	if err != nil {
		return nil, fmt.Errorf("products reader: %w", err)
	}
	categories, err := NewReader(ResourceCategories, cacheStore, store.ListCategories, opts...)
	if err != nil {
		return nil, fmt.Errorf("categories reader: %w", err)
	}

	return &Catalog{
		store:       store,
		products:    products,
		categories:  categories,
		invalidator: NewInvalidator(cacheStore, opts...),
	}, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	return c.products.List(ctx)
}

func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	return c.categories.List(ctx)
}

// FetchProducts is ListProducts with the cache trace.
func (c *Catalog) FetchProducts(ctx context.Context) ([]models.Product, Trace, error) {
	return c.products.Fetch(ctx)
}

// FetchCategories is ListCategories with the cache trace.
func (c *Catalog) FetchCategories(ctx context.Context) ([]models.Category, Trace, error) {
	return c.categories.Fetch(ctx)
}

// GetProduct reads a single product straight from the store.
func (c *Catalog) GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error) {
	return c.store.GetProduct(ctx, idOrSlug)
}

func (c *Catalog) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	product, err := c.store.CreateProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, ResourceProducts)
	return product, nil
}

func (c *Catalog) UpdateProduct(ctx context.Context, id string, input ProductInput) (*models.Product, error) {
	product, err := c.store.UpdateProduct(ctx, id, input)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, ResourceProducts)
	return product, nil
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	if err := c.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, ResourceProducts)
	return nil
}

// Category writes also drop the product list because products embed their
// category.
func (c *Catalog) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	category, err := c.store.CreateCategory(ctx, input)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, ResourceCategories, ResourceProducts)
	return category, nil
}

func (c *Catalog) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*models.Category, error) {
	category, err := c.store.UpdateCategory(ctx, id, input)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, ResourceCategories, ResourceProducts)
	return category, nil
}

func (c *Catalog) DeleteCategory(ctx context.Context, id string) error {
	if err := c.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, ResourceCategories, ResourceProducts)
	return nil
}

// Invalidate drops a single cached list on operator request.
func (c *Catalog) Invalidate(ctx context.Context, resource Resource) InvalidateResult {
	return c.invalidator.Invalidate(ctx, resource)
}

// InvalidateAll drops every cached list.
func (c *Catalog) InvalidateAll(ctx context.Context) []InvalidateResult {
	return c.invalidator.InvalidateAll(ctx)
}

func (c *Catalog) invalidate(ctx context.Context, resources ...Resource) {
	// The write is already committed; a cancelled request must not skip the
	// delete.
	ctx = context.WithoutCancel(ctx)
	for _, r := range resources {
		c.invalidator.Invalidate(ctx, r)
	}
}
