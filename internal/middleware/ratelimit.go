package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/ratelimit"
	"anoa.com/unitech/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit allows one request per client IP and window for the given action. Redis failures let
// the request through. A request the handler rejects as a client error (other than 429) gives the
// window back, so a mistyped form does not lock the client out.
func RateLimit(limiter *ratelimit.Limiter, action string, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		subject := c.ClientIP()

		allowed, err := limiter.Allow(ctx, action, subject, window)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("action", action), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			if ttl, err := limiter.RetryAfter(ctx, action, subject); err == nil && ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			}
			response.ResponseError(c, fmt.Errorf("%w: try again later", apperror.ErrRateLimitExceeded))
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			if err := limiter.Clear(ctx, action, subject); err != nil {
				logger.Warn("failed to release rate limit window", zap.String("action", action), zap.Error(err))
			}
		}
	}
}
