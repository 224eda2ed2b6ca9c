package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/artisan/internal/catalog"
	apperrors "github.com/charlesng35/artisan/pkg/errors"
	"github.com/charlesng35/artisan/pkg/response"
)

// CacheInvalidator drops cached catalog lists on operator request.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, resource catalog.Resource) catalog.InvalidateResult
	InvalidateAll(ctx context.Context) []catalog.InvalidateResult
}

// CacheHandler exposes manual cache flushes.
type CacheHandler struct {
	invalidator CacheInvalidator
}

func NewCacheHandler(invalidator CacheInvalidator) *CacheHandler {
	return &CacheHandler{invalidator: invalidator}
}

type invalidationDTO struct {
	Resource string `json:"resource"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

func mapInvalidation(result catalog.InvalidateResult) invalidationDTO {
	dto := invalidationDTO{Resource: result.Resource.String(), Status: string(result.Status)}
	if result.Err != nil {
		dto.Error = result.Err.Error()
	}
	return dto
}

// DELETE /api/cache/:resource
func (h *CacheHandler) Invalidate(c *gin.Context) {
	resource, err := catalog.ParseResource(c.Param("resource"))
	if err != nil {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Unknown cache resource"))
		return
	}

	result := h.invalidator.Invalidate(requestContext(c), resource)
	status := http.StatusOK
	if !result.OK() {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, mapInvalidation(result))
}

// DELETE /api/cache
func (h *CacheHandler) InvalidateAll(c *gin.Context) {
	results := h.invalidator.InvalidateAll(requestContext(c))
	status := http.StatusOK
	out := make([]invalidationDTO, 0, len(results))
	for _, result := range results {
		if !result.OK() {
			status = http.StatusServiceUnavailable
		}
		out = append(out, mapInvalidation(result))
	}
	response.Success(c, status, out)
}
