package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/logging"
	"github.com/dominicbrandes/aztec-exchange/internal/metrics"
)

// AccessLog emits one structured line per completed request and feeds the
// request latency histogram. Scrapes of /metrics are logged but excluded
// from the histogram so the scraper does not observe itself.
func AccessLog(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		logging.FromContext(c.Request.Context()).Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
		)

		if path != "/metrics" {
			m.ObserveRequestLatency(c.Request.Method, endpointLabel(path), duration)
		}
	}
}

// endpointLabel is the last path segment, "root" for / and trailing slashes.
func endpointLabel(path string) string {
	seg := path[strings.LastIndexByte(path, '/')+1:]
	if seg == "" {
		return "root"
	}
	return seg
}
