package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dominicbrandes/aztec-exchange/internal/config"
)

// APIKeyAuth guards a route group with the static API key set. A missing
// header is a validation failure (422), a present but unknown key is an
// authentication failure (401).
func APIKeyAuth(keys map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(config.APIKeyHeader)
		if key == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Request validation failed",
					"fields": []gin.H{
						{"field": config.APIKeyHeader, "reason": "header required"},
					},
				},
				"request_id": c.GetString(RequestIDKey),
			})
			c.Abort()
			return
		}

		// Unknown keys get no detail beyond the status itself.
		if _, ok := keys[key]; !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Unauthorized",
				},
				"request_id": c.GetString(RequestIDKey),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
