package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/artisan/internal/monitoring"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	manager *monitoring.HealthManager
	timeout time.Duration
}

// NewHealthHandler returns nil when manager is nil so routes can fall back to
// the disabled handler.
func NewHealthHandler(manager *monitoring.HealthManager, probeTimeout time.Duration) *HealthHandler {
	if manager == nil {
		return nil
	}
	return &HealthHandler{manager: manager, timeout: probeTimeout}
}

// GET /health
func (h *HealthHandler) Overall(c *gin.Context) {
	ctx, cancel := h.probeContext(c)
	defer cancel()

	report := h.manager.EvaluateReadiness(ctx)
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checked_at": time.Now().UTC(),
	})
}

// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	ctx, cancel := h.probeContext(c)
	defer cancel()
	writeHealthReport(c, h.manager.EvaluateLiveness(ctx))
}

// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := h.probeContext(c)
	defer cancel()
	writeHealthReport(c, h.manager.EvaluateReadiness(ctx))
}

func (h *HealthHandler) probeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := requestContext(c)
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

// DisabledHealth answers probes when health checks are turned off.
func DisabledHealth(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checks":     report.Checks,
		"checked_at": time.Now().UTC(),
	})
}

func reportStatus(report monitoring.HealthReport) int {
	if !report.Success {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
