package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/config"
	"github.com/dominicbrandes/aztec-exchange/internal/domain/ratelimit"
	"github.com/dominicbrandes/aztec-exchange/internal/infrastructure/memory"
	redisinfra "github.com/dominicbrandes/aztec-exchange/internal/infrastructure/redis"
	"github.com/dominicbrandes/aztec-exchange/internal/infrastructure/subprocess"
	"github.com/dominicbrandes/aztec-exchange/internal/logging"
	"github.com/dominicbrandes/aztec-exchange/internal/metrics"
	"github.com/dominicbrandes/aztec-exchange/internal/server"
	"github.com/dominicbrandes/aztec-exchange/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg)
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	logger.Info("starting gateway",
		zap.String("environment", cfg.Environment),
		zap.String("version", cfg.Version),
		zap.String("addr", cfg.Addr()),
	)

	m := metrics.New()

	ctx := context.Background()
	limiter, stopLimiter := buildRateLimiter(ctx, cfg, logger)

	process := subprocess.NewProcess(cfg.Engine, m, logger)
	client := subprocess.NewClient(process, logger)
	if err := process.Start(ctx); err != nil {
		logger.Fatal("engine failed to start", zap.Error(err))
	}

	exchangeService := services.NewExchangeService(client, m, logger)

	httpServer := server.New(cfg, &server.Services{
		Exchange: exchangeService,
		Limiter:  limiter,
	}, m, logger)
	httpServer.Setup()

	// Start blocks until a shutdown signal or a listen failure. Either way
	// the engine is stopped before the process exits so its event log is
	// flushed cleanly.
	serveErr := httpServer.Start()
	process.Stop(ctx)
	stopLimiter()

	if serveErr != nil {
		logger.Fatal("server failed", zap.Error(serveErr))
	}
	logger.Info("gateway stopped")
}

// buildRateLimiter selects the Redis backend when REDIS_URL is set and the
// in-memory window otherwise. The returned stop function releases whichever
// backend was built.
func buildRateLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ratelimit.RateLimiter, func()) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis unreachable", zap.Error(err))
		}
		logger.Info("rate limiter backend: redis", zap.String("addr", opts.Addr))
		return redisinfra.NewRateLimiter(client), func() { _ = client.Close() }
	}

	logger.Info("rate limiter backend: memory")
	limiter := memory.NewRateLimiter()
	limiter.StartJanitor(cfg.RateLimit.Window())
	return limiter, limiter.StopJanitor
}
