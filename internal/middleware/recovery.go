package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/logging"
)

// Recovery converts handler panics into the standard error envelope instead
// of gin's default plain-text dump. The panic value and stack go to the
// request-scoped logger, never to the response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered interface{}) {
		logging.FromContext(c.Request.Context()).Error("panic recovered",
			zap.Any("panic", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "An internal error occurred",
			},
			"request_id": c.GetString(RequestIDKey),
		})
	})
}
