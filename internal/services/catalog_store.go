package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/artisan/internal/catalog"
	"github.com/charlesng35/artisan/internal/models"
	apperrors "github.com/charlesng35/artisan/pkg/errors"
	"github.com/charlesng35/artisan/pkg/validator"
)

var (
	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = apperrors.ErrProductNotFound
	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = apperrors.ErrCategoryNotFound
	// ErrInvalidInput is matched by every validation failure.
	ErrInvalidInput = apperrors.ErrBadRequest
	// ErrCategoryExists indicates a category with the same name already exists.
	ErrCategoryExists = apperrors.New("catalog.category_exists", "Category already exists", http.StatusConflict)
	// ErrCategoryInUse indicates products still reference the category.
	ErrCategoryInUse = apperrors.New("catalog.category_in_use", "Category still has products", http.StatusConflict)
)

const maxSlugAttempts = 50

// productWritableColumns are replaced on update, including zero values.
var productWritableColumns = []string{
	"name", "description", "price", "original_price", "discount",
	"image", "stock", "tag", "category_id",
}

// CatalogStore is the relational source of truth for products and categories.
type CatalogStore struct {
	db *gorm.DB
}

var _ catalog.Store = (*CatalogStore)(nil)

// NewCatalogStore constructs a CatalogStore once a database handle is supplied.
func NewCatalogStore(db *gorm.DB) (*CatalogStore, error) {
	if db == nil {
		return nil, errors.New("catalog store: db is required")
	}
	return &CatalogStore{db: db}, nil
}

// ListProducts returns every product newest first with its category.
func (s *CatalogStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx = ensureContext(ctx)

	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Order("created_at DESC").
		Order("id DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("catalog store: list products: %w", err)
	}
	return products, nil
}

// ListCategories returns every category in name order.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx = ensureContext(ctx)

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("catalog store: list categories: %w", err)
	}
	return categories, nil
}

// GetProduct loads a product by id or slug.
func (s *CatalogStore) GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error) {
	ctx = ensureContext(ctx)

	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, ErrProductNotFound
	}

	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("id = ? OR slug = ?", idOrSlug, strings.ToLower(idOrSlug)).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog store: load product: %w", err)
	}
	return &product, nil
}

// CreateProduct validates input, derives a unique slug from the name and
// inserts the product.
func (s *CatalogStore) CreateProduct(ctx context.Context, input catalog.ProductInput) (*models.Product, error) {
	ctx = ensureContext(ctx)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := productFromInput(input)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategoryExists(tx, product.CategoryID); err != nil {
			return err
		}
		slug, err := uniqueSlug(tx, product.Name)
		if err != nil {
			return err
		}
		product.Slug = slug
		return tx.Create(&product).Error
	})
	if err != nil {
		return nil, translateWriteError("create product", err)
	}
	return s.reloadProduct(ctx, product.ID)
}

// UpdateProduct replaces the writable fields of a product. The slug is kept
// so existing links stay valid.
func (s *CatalogStore) UpdateProduct(ctx context.Context, id string, input catalog.ProductInput) (*models.Product, error) {
	ctx = ensureContext(ctx)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Product
		if err := tx.First(&existing, "id = ?", strings.TrimSpace(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		updated := productFromInput(input)
		if err := ensureCategoryExists(tx, updated.CategoryID); err != nil {
			return err
		}
		return tx.Model(&existing).
			Select(productWritableColumns).
			Updates(&updated).Error
	})
	if err != nil {
		return nil, translateWriteError("update product", err)
	}
	return s.reloadProduct(ctx, strings.TrimSpace(id))
}

// DeleteProduct removes a product.
func (s *CatalogStore) DeleteProduct(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", strings.TrimSpace(id))
	if res.Error != nil {
		return fmt.Errorf("catalog store: delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateCategory inserts a category with a unique name.
func (s *CatalogStore) CreateCategory(ctx context.Context, input catalog.CategoryInput) (*models.Category, error) {
	ctx = ensureContext(ctx)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	category := models.Category{
		Name:  strings.TrimSpace(input.Name),
		Image: trimmedOrNil(input.Image),
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, translateWriteError("create category", err)
	}
	return &category, nil
}

// UpdateCategory renames a category or changes its image.
func (s *CatalogStore) UpdateCategory(ctx context.Context, id string, input catalog.CategoryInput) (*models.Category, error) {
	ctx = ensureContext(ctx)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	var category models.Category
	err := s.db.WithContext(ctx).First(&category, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog store: load category: %w", err)
	}

	updates := map[string]any{
		"name":  strings.TrimSpace(input.Name),
		"image": trimmedOrNil(input.Image),
	}
	if err := s.db.WithContext(ctx).Model(&category).Updates(updates).Error; err != nil {
		return nil, translateWriteError("update category", err)
	}
	if err := s.db.WithContext(ctx).First(&category, "id = ?", category.ID).Error; err != nil {
		return nil, fmt.Errorf("catalog store: reload category: %w", err)
	}
	return &category, nil
}

// DeleteCategory removes a category that no product references.
func (s *CatalogStore) DeleteCategory(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)

	return translateWriteError("delete category", s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return ErrCategoryInUse
		}

		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	}))
}

func (s *CatalogStore) reloadProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("catalog store: reload product: %w", err)
	}
	return &product, nil
}

func validateInput(input any) error {
	if err := validator.ValidateStruct(input); err != nil {
		return ErrInvalidInput.WithMessage(err.Error()).WithInternal(err)
	}
	return nil
}

func productFromInput(input catalog.ProductInput) models.Product {
	product := models.Product{
		Name:          input.Name,
		Description:   trimmedOrNil(input.Description),
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Discount:      trimmedOrNil(input.Discount),
		Image:         input.Image,
		Stock:         input.Stock,
		Tag:           trimmedOrNil(input.Tag),
		CategoryID:    input.CategoryID,
	}
	product.Normalise()
	return product
}

func ensureCategoryExists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrInvalidInput.WithMessage(fmt.Sprintf("category %q does not exist", id))
	}
	return nil
}

func uniqueSlug(tx *gorm.DB, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", ErrInvalidInput.WithMessage("product name must contain letters or digits")
	}

	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts+1; attempt++ {
		var count int64
		if err := tx.Model(&models.Product{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", apperrors.ErrConflict.WithMessage("could not allocate a unique product slug")
}

func translateWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if isForeignKeyError(err) {
		if op == "delete category" {
			return ErrCategoryInUse.WithInternal(err)
		}
		return ErrInvalidInput.WithMessage("referenced record does not exist").WithInternal(err)
	}
	if isUniqueConstraintError(err) {
		if strings.HasSuffix(op, "category") {
			return ErrCategoryExists.WithInternal(err)
		}
		return apperrors.ErrConflict.WithInternal(err)
	}
	return fmt.Errorf("catalog store: %s: %w", op, err)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
