package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/artisan/internal/catalog"
	"github.com/charlesng35/artisan/internal/models"
	apperrors "github.com/charlesng35/artisan/pkg/errors"
	"github.com/charlesng35/artisan/pkg/logger"
	"github.com/charlesng35/artisan/pkg/response"
)

// CatalogService is the catalog surface the HTTP layer depends on.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error)
	CreateProduct(ctx context.Context, input catalog.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, input catalog.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, input catalog.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, input catalog.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CatalogHandler serves the product and category endpoints.
type CatalogHandler struct {
	svc CatalogService
	log *zap.Logger
}

func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: logger.WithModule("handlers.catalog")}
}

// GET /api/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(requestContext(c))
	if err != nil {
		h.fail(c, err, "Failed to fetch products")
		return
	}
	response.Success(c, http.StatusOK, nonNil(products))
}

// GET /api/products/:id accepts an id or a slug.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.svc.GetProduct(requestContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch product")
		return
	}
	response.Success(c, http.StatusOK, product)
}

// POST /api/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var payload productPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	product, err := h.svc.CreateProduct(requestContext(c), payload.input())
	if err != nil {
		h.fail(c, err, "Failed to create product")
		return
	}
	response.Success(c, http.StatusCreated, product)
}

// PUT /api/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var payload productPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	product, err := h.svc.UpdateProduct(requestContext(c), c.Param("id"), payload.input())
	if err != nil {
		h.fail(c, err, "Failed to update product")
		return
	}
	response.Success(c, http.StatusOK, product)
}

// DELETE /api/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.DeleteProduct(requestContext(c), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete product")
		return
	}
	response.Message(c, http.StatusOK, "Product deleted successfully")
}

// GET /api/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(requestContext(c))
	if err != nil {
		h.fail(c, err, "Failed to fetch categories")
		return
	}
	response.Success(c, http.StatusOK, nonNil(categories))
}

// POST /api/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var payload categoryPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	category, err := h.svc.CreateCategory(requestContext(c), payload.input())
	if err != nil {
		h.fail(c, err, "Failed to create category")
		return
	}
	response.Success(c, http.StatusCreated, category)
}

// PUT /api/categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var payload categoryPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	category, err := h.svc.UpdateCategory(requestContext(c), c.Param("id"), payload.input())
	if err != nil {
		h.fail(c, err, "Failed to update category")
		return
	}
	response.Success(c, http.StatusOK, category)
}

// DELETE /api/categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(requestContext(c), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete category")
		return
	}
	response.Message(c, http.StatusOK, "Category deleted successfully")
}

// fail renders AppErrors as they are and hides everything else behind
// message.
func (h *CatalogHandler) fail(c *gin.Context, err error, message string) {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		response.Error(c, appErr)
		return
	case errors.Is(err, catalog.ErrStoreUnavailable):
		err = apperrors.ErrCatalogUnavailable.WithMessage(message).WithInternal(err)
	default:
		err = apperrors.ErrInternalServer.WithMessage(message).WithInternal(err)
	}
	h.log.Error(message,
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	response.Error(c, err)
}

// nonNil makes empty lists render as [] instead of null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
