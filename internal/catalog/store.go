package catalog

import (
	"context"

	"github.com/charlesng35/artisan/internal/models"
)

// Store is the source of truth for the catalog. List methods return records
// in canonical order: products newest first with their category embedded,
// categories by name.
type Store interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name          string   `json:"name" validate:"required,notblank,max=200"`
	Description   *string  `json:"description"`
	Price         float64  `json:"price" validate:"gt=0"`
	OriginalPrice *float64 `json:"originalPrice" validate:"omitempty,gt=0"`
	Discount      *string  `json:"discount" validate:"omitempty,max=40"`
	Image         string   `json:"image" validate:"required,notblank"`
	CategoryID    string   `json:"categoryId" validate:"required,notblank"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Tag           *string  `json:"tag" validate:"omitempty,max=40"`
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name  string  `json:"name" validate:"required,notblank,max=120"`
	Image *string `json:"image"`
}
