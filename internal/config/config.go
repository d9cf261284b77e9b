package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// APIKeyHeader is the header clients authenticate with.
const APIKeyHeader = "X-API-Key"

// defaultAPIKeys is the development key set used when API_KEYS is not set.
var defaultAPIKeys = []string{"test-key-1", "test-key-2", "dev-key", "aztec-demo-key"}

// Config holds the application configuration
type Config struct {
	// Server settings
	Host        string `env:"HOST,default=127.0.0.1"`
	Port        int    `env:"PORT,default=8000"`
	Environment string `env:"ENVIRONMENT,default=development"`
	Version     string

	// Engine settings
	Engine EngineConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Authentication
	APIKeys map[string]struct{}

	// Logging
	Log LogConfig

	// Optional Redis backend for the rate limiter
	RedisURL string `env:"REDIS_URL"`
}

// EngineConfig holds the matching engine subprocess configuration
type EngineConfig struct {
	Path         string `env:"ENGINE_PATH"`
	DataDir      string `env:"DATA_DIR"`
	EventLogPath string `env:"EVENT_LOG_PATH"`
	SnapshotDir  string `env:"SNAPSHOT_DIR"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests      int `env:"RATE_LIMIT_REQUESTS,default=100"`
	WindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS,default=60"`
}

// Window returns the sliding window length as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `env:"LOG_LEVEL,default=info"`
	// File enables a rotating file sink in addition to stdout when set.
	File string `env:"LOG_FILE"`
}

// Load resolves the configuration snapshot from the environment.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	cfg.Version = "0.1.0"

	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	if cfg.Engine.Path == "" {
		cfg.Engine.Path = findEngineBinary(root)
	}
	if cfg.Engine.DataDir == "" {
		cfg.Engine.DataDir = filepath.Join(root, "data")
	}
	if cfg.Engine.EventLogPath == "" {
		cfg.Engine.EventLogPath = filepath.Join(cfg.Engine.DataDir, "events.jsonl")
	}
	if cfg.Engine.SnapshotDir == "" {
		cfg.Engine.SnapshotDir = filepath.Join(cfg.Engine.DataDir, "snapshots")
	}
	for _, p := range []*string{
		&cfg.Engine.Path,
		&cfg.Engine.DataDir,
		&cfg.Engine.EventLogPath,
		&cfg.Engine.SnapshotDir,
	} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", *p, err)
		}
		*p = abs
	}

	cfg.APIKeys = parseAPIKeys(os.Getenv("API_KEYS"))

	return cfg, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// findEngineBinary searches the conventional build output locations for the
// engine executable. A miss is not an error; the supervisor reports it when
// asked to start.
func findEngineBinary(root string) string {
	name := "exchange_engine"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	for _, sub := range []string{"Debug", "Release", ""} {
		candidate := filepath.Join(root, "build", "engine", sub, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func parseAPIKeys(raw string) map[string]struct{} {
	keys := defaultAPIKeys
	if raw != "" {
		keys = strings.Split(raw, ",")
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}
