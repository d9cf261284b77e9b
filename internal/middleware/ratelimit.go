package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/config"
	"github.com/dominicbrandes/aztec-exchange/internal/domain/ratelimit"
	"github.com/dominicbrandes/aztec-exchange/internal/logging"
)

// RateLimit enforces the per-client sliding window on a route group. It runs
// before authentication, so rejected keys and anonymous callers burn their
// own windows instead of skipping the limiter. Every response carries
// X-RateLimit-* headers; rejections add Retry-After.
func RateLimit(limiter ratelimit.RateLimiter, cfg config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ratelimit.ClientKey(c.GetHeader(config.APIKeyHeader), c.ClientIP())

		result, err := limiter.Check(c.Request.Context(), key, cfg.Requests, cfg.Window())
		if err != nil {
			logging.FromContext(c.Request.Context()).Error("rate limit check failed",
				zap.String("client_key", key),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Rate limiting service unavailable",
				},
				"request_id": c.GetString(RequestIDKey),
			})
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded",
				},
				"request_id": c.GetString(RequestIDKey),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

	if result.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
	}
}
