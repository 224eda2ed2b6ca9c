package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/artisan/internal/monitoring"
	apperrors "github.com/charlesng35/artisan/pkg/errors"
	"github.com/charlesng35/artisan/pkg/logger"
	"github.com/charlesng35/artisan/pkg/response"
)

const rateLimitStoreTimeout = 200 * time.Millisecond

// RateLimit limits requests per (client IP, route) within a fixed window.
// When the store fails the request is let through.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	log := logger.WithModule("ratelimit")

	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := "ratelimit:" + c.ClientIP() + "|" + c.Request.Method + "|" + route

		ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitStoreTimeout)
		count, resetIn, err := store.Increment(ctx, key, window)
		cancel()
		if err != nil {
			log.Warn("rate limit store unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Round(time.Second).Seconds())))

		if count > maxRequests {
			monitoring.RecordRateLimited(route)
			c.Header("Retry-After", strconv.Itoa(max(1, int(resetIn.Round(time.Second).Seconds()))))
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
