package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/config"
	"github.com/dominicbrandes/aztec-exchange/internal/domain/ratelimit"
	"github.com/dominicbrandes/aztec-exchange/internal/handlers"
	"github.com/dominicbrandes/aztec-exchange/internal/metrics"
	"github.com/dominicbrandes/aztec-exchange/internal/middleware"
	"github.com/dominicbrandes/aztec-exchange/internal/services"
)

// Server is the HTTP front of the gateway.
type Server interface {
	Setup()
	Start() error
	Router() *gin.Engine
}

// HTTPServer implements the Server interface on gin.
type HTTPServer struct {
	router   *gin.Engine
	config   *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	services *Services
}

// Services holds the dependencies the routes need.
type Services struct {
	Exchange *services.ExchangeService
	Limiter  ratelimit.RateLimiter
}

// New creates a new server instance.
func New(cfg *config.Config, svcs *Services, m *metrics.Metrics, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		config:   cfg,
		metrics:  m,
		services: svcs,
		logger:   logger,
	}
}

// Setup builds the router. Must run before Start.
func (s *HTTPServer) Setup() {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers.RegisterValidators()

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
}

func (s *HTTPServer) setupMiddleware() {
	// RequestID precedes Recovery so panic envelopes carry the id.
	s.router.Use(middleware.RequestID(s.logger))
	s.router.Use(middleware.AccessLog(s.metrics))
	s.router.Use(middleware.Recovery())

	s.router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", config.APIKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:          12 * time.Hour,
	}))
}

func (s *HTTPServer) setupRoutes() {
	h := handlers.NewExchangeHandler(s.services.Exchange)
	docs := handlers.NewDocsHandler(s.config.Version)

	s.router.GET("/", s.serviceInfo)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router.GET("/docs", docs.GetSwaggerUI)
	s.router.GET("/redoc", docs.GetRedocUI)
	s.router.GET("/openapi.json", docs.GetOpenAPIJSON)

	api := s.router.Group("/api/v1")

	// Market data and health are open.
	api.GET("/health", h.Health)
	api.GET("/book/:symbol", h.GetBook)
	api.GET("/trades/:symbol", h.GetTrades)

	// Reads needing a key but no rate limit.
	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(s.config.APIKeys))
	authed.GET("/orders/:id", h.GetOrder)
	authed.GET("/stats", h.GetStats)

	// Mutations burn rate limit before the key check.
	limited := api.Group("")
	limited.Use(middleware.RateLimit(s.services.Limiter, s.config.RateLimit))
	limited.Use(middleware.APIKeyAuth(s.config.APIKeys))
	limited.POST("/orders", h.PlaceOrder)
	limited.DELETE("/orders/:id", h.CancelOrder)
}

func (s *HTTPServer) serviceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "aztec-exchange",
		"version": s.config.Version,
		"docs":    "/docs",
		"health":  "/api/v1/health",
		"metrics": "/metrics",
	})
}

// Start serves until SIGINT/SIGTERM or a listen failure, then drains
// in-flight requests. Callers stop the engine after Start returns so orders
// in flight still reach it.
func (s *HTTPServer) Start() error {
	srv := &http.Server{
		Addr:           s.config.Addr(),
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("environment", s.config.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shut down", zap.Error(err))
		return err
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing.
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}
