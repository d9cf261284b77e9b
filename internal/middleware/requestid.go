package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/logging"
)

// RequestIDHeader carries the correlation id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// RequestID assigns every request a correlation id, honoring one supplied by
// the caller. The id is echoed on the response, stored on the gin context,
// and bound into a request-scoped logger so downstream log lines and error
// envelopes all carry it.
func RequestID(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()[:8]
		}

		ctx := logging.WithRequestID(c.Request.Context(), id)
		ctx = logging.WithLogger(ctx, logger.With(zap.String("request_id", id)))
		c.Request = c.Request.WithContext(ctx)

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
