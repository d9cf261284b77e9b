package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/middleware"
)

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequestID(zap.NewNop()), middleware.Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("handler exploded")
	})
	router.GET("/fine", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	t.Run("panic becomes the standard envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
		assert.Contains(t, w.Body.String(), "request_id")
		assert.NotContains(t, w.Body.String(), "handler exploded",
			"panic detail must not leak to the caller")
	})

	t.Run("normal requests still pass", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/fine", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
