// Package memory provides the default rate-limiter backend: per-key arrival
// timestamps held in process memory. State is not durable and resets on
// restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dominicbrandes/aztec-exchange/internal/domain/ratelimit"
)

// RateLimiter keeps one bounded timestamp sequence per client key. Every
// check prunes the sequence lazily; a cron janitor sweeps abandoned keys so
// the map stays bounded by active-key cardinality.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	janitor *cron.Cron
}

// NewRateLimiter creates an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string][]time.Time),
	}
}

// Check records an arrival for key unless the window is full.
func (r *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := prune(r.buckets[key], now.Add(-window))
	if len(kept) >= limit {
		r.buckets[key] = kept
		return &ratelimit.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetTime:  kept[0].Add(window),
			RetryAfter: window,
		}, nil
	}

	kept = append(kept, now)
	r.buckets[key] = kept
	return &ratelimit.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(kept),
		ResetTime: now.Add(window),
	}, nil
}

// Reset clears all recorded arrivals for key.
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buckets, key)
	return nil
}

// GetStatus reports window occupancy without recording an arrival.
func (r *RateLimiter) GetStatus(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := prune(r.buckets[key], now.Add(-window))
	if len(kept) == 0 {
		delete(r.buckets, key)
	} else {
		r.buckets[key] = kept
	}

	result := &ratelimit.Result{
		Allowed:   len(kept) < limit,
		Limit:     limit,
		Remaining: limit - len(kept),
		ResetTime: now.Add(window),
	}
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	if len(kept) > 0 {
		result.ResetTime = kept[0].Add(window)
	}
	if !result.Allowed {
		result.RetryAfter = window
	}
	return result, nil
}

// StartJanitor schedules a sweep that drops keys whose sequences have fully
// expired. Safe to call once; the returned limiter keeps working without it.
func (r *RateLimiter) StartJanitor(window time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.janitor != nil {
		return
	}
	r.janitor = cron.New()
	_, _ = r.janitor.AddFunc("@every 1m", func() { r.sweep(window) })
	r.janitor.Start()
}

// StopJanitor halts the sweep job.
func (r *RateLimiter) StopJanitor() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.janitor == nil {
		return
	}
	r.janitor.Stop()
	r.janitor = nil
}

func (r *RateLimiter) sweep(window time.Duration) {
	cutoff := time.Now().Add(-window)

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, arrivals := range r.buckets {
		kept := prune(arrivals, cutoff)
		if len(kept) == 0 {
			delete(r.buckets, key)
			continue
		}
		r.buckets[key] = kept
	}
}

// prune drops timestamps at or before cutoff, preserving arrival order.
func prune(arrivals []time.Time, cutoff time.Time) []time.Time {
	kept := arrivals[:0]
	for _, ts := range arrivals {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
