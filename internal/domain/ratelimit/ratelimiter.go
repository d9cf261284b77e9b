// Package ratelimit defines the sliding-window quota contract enforced in
// front of the order-flow routes.
package ratelimit

import (
	"context"
	"time"
)

// Result represents the outcome of one quota check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// RateLimiter is implemented by the in-memory and Redis backends.
type RateLimiter interface {
	// Check records an arrival for key and reports whether it fits the
	// window. A rejected arrival is not recorded.
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)

	// Reset clears all recorded arrivals for key.
	Reset(ctx context.Context, key string) error

	// GetStatus reports the current window occupancy without recording
	// an arrival.
	GetStatus(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ClientKey derives the bucket key for a request. The raw API key header is
// used when present, valid or not; the 401 check runs after rate limiting.
// Unauthenticated traffic is bucketed per client IP.
func ClientKey(apiKey, clientIP string) string {
	switch {
	case apiKey != "":
		return "key:" + apiKey
	case clientIP != "":
		return "ip:" + clientIP
	default:
		return "ip:unknown"
	}
}
