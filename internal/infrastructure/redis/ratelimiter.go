// Package redis provides the optional shared rate-limiter backend, selected
// when REDIS_URL is set. Several gateway replicas pointed at the same Redis
// enforce one combined window per client key.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dominicbrandes/aztec-exchange/internal/domain/ratelimit"
)

const keyPrefix = "ratelimit:"

// slidingWindowScript prunes expired arrivals, then either records the new
// one or reports the window full. It runs atomically server-side so
// concurrent gateways cannot overshoot the limit.
const slidingWindowScript = `
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local current = redis.call('ZCARD', key)
if current >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local oldest_ms = now
	if #oldest > 0 then
		oldest_ms = tonumber(oldest[2])
	end
	return {0, current, oldest_ms}
end

redis.call('ZADD', key, now, now .. ':' .. math.random())
redis.call('EXPIRE', key, ttl)
return {1, current + 1, 0}
`

// RateLimiter implements the rate-limit port on one Redis sorted set per
// client key, scored by arrival time in milliseconds.
type RateLimiter struct {
	client *redis.Client
	script *redis.Script
}

// NewRateLimiter creates a limiter on an established Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client: client,
		script: redis.NewScript(slidingWindowScript),
	}
}

// Check records an arrival for key unless the window is full.
func (r *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error) {
	now := time.Now()
	windowStartMs := now.Add(-window).UnixMilli()
	ttlSeconds := int64(window.Seconds()) + 1

	raw, err := r.script.Run(ctx, r.client,
		[]string{keyPrefix + key},
		windowStartMs, now.UnixMilli(), limit, ttlSeconds,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("rate limit check: unexpected script reply %v", raw)
	}
	allowed := values[0].(int64) == 1
	count := int(values[1].(int64))

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	result := &ratelimit.Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(window),
	}
	if !allowed {
		result.ResetTime = time.UnixMilli(values[2].(int64)).Add(window)
		result.RetryAfter = window
	}
	return result, nil
}

// Reset clears all recorded arrivals for key.
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}

// GetStatus reports window occupancy without recording an arrival.
func (r *RateLimiter) GetStatus(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error) {
	now := time.Now()
	redisKey := keyPrefix + key

	cutoff := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)
	if err := r.client.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff).Err(); err != nil {
		return nil, fmt.Errorf("rate limit status: %w", err)
	}
	count, err := r.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit status: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	result := &ratelimit.Result{
		Allowed:   int(count) < limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(window),
	}
	if !result.Allowed {
		oldest, err := r.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			result.ResetTime = time.UnixMilli(int64(oldest[0].Score)).Add(window)
		}
		result.RetryAfter = window
	}
	return result, nil
}
