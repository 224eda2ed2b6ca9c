package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/artisan/internal/monitoring"
)

// MonitoringHandler surfaces catalog cache statistics for operators.
type MonitoringHandler struct {
	module            *monitoring.Module
	prometheusEnabled bool
	endpoint          string
}

// NewMonitoringHandler constructs a monitoring handler. Returns nil when module is nil.
func NewMonitoringHandler(module *monitoring.Module, prometheusEnabled bool, endpoint string) *MonitoringHandler {
	if module == nil {
		return nil
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	return &MonitoringHandler{module: module, prometheusEnabled: prometheusEnabled, endpoint: endpoint}
}

// GET /api/monitoring/summary
func (h *MonitoringHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"summary": h.module.Summary(),
			"prometheus": gin.H{
				"enabled":  h.prometheusEnabled,
				"endpoint": h.endpoint,
			},
		},
	})
}
