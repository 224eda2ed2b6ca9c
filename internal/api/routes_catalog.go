package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/artisan/internal/handlers"
)

func registerCatalogRoutes(api *gin.RouterGroup, handler *handlers.CatalogHandler) {
	products := api.Group("/products")
	{
		products.GET("", handler.ListProducts)
		products.POST("", handler.CreateProduct)
		products.GET("/:id", handler.GetProduct)
		products.PUT("/:id", handler.UpdateProduct)
		products.DELETE("/:id", handler.DeleteProduct)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", handler.ListCategories)
		categories.POST("", handler.CreateCategory)
		categories.PUT("/:id", handler.UpdateCategory)
		categories.DELETE("/:id", handler.DeleteCategory)
	}
}

func registerCacheRoutes(api *gin.RouterGroup, handler *handlers.CacheHandler) {
	api.DELETE("/cache", handler.InvalidateAll)
	api.DELETE("/cache/:resource", handler.Invalidate)
}
