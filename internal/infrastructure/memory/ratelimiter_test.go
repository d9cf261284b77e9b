package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_AllowsUpToLimit(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Check(ctx, "key:alpha", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, "key:alpha", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, time.Minute, result.RetryAfter)
}

func TestCheck_RejectionDoesNotConsumeSlot(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "key:beta", 2, time.Minute)
		require.NoError(t, err)
	}

	// Hammering a full window must not extend it.
	for i := 0; i < 10; i++ {
		result, err := limiter.Check(ctx, "key:beta", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
	}

	status, err := limiter.GetStatus(ctx, "key:beta", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Remaining)
}

func TestCheck_WindowSlides(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()
	window := 100 * time.Millisecond

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "ip:10.0.0.1", 3, window)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "ip:10.0.0.1", 3, window)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	time.Sleep(window + 50*time.Millisecond)

	result, err = limiter.Check(ctx, "ip:10.0.0.1", 3, window)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "expired arrivals should free the window")
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Check(ctx, "key:full", 3, time.Minute)
		require.NoError(t, err)
	}

	blocked, err := limiter.Check(ctx, "key:full", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.Check(ctx, "key:idle", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, 2, other.Remaining)
}

func TestReset_ClearsWindow(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "key:gamma", 2, time.Minute)
		require.NoError(t, err)
	}
	blocked, err := limiter.Check(ctx, "key:gamma", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, blocked.Allowed)

	require.NoError(t, limiter.Reset(ctx, "key:gamma"))

	result, err := limiter.Check(ctx, "key:gamma", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestGetStatus_DoesNotRecordArrival(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		status, err := limiter.GetStatus(ctx, "key:delta", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, status.Allowed)
		assert.Equal(t, 3, status.Remaining)
	}
}

func TestCheck_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	const workers = 50
	const limit = 10

	var wg sync.WaitGroup
	allowed := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Check(ctx, "key:contended", limit, time.Minute)
			if err == nil && result.Allowed {
				allowed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(allowed)

	assert.Len(t, allowed, limit)
}

func TestSweep_EvictsExpiredBuckets(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()
	window := 50 * time.Millisecond

	for i := 0; i < 4; i++ {
		_, err := limiter.Check(ctx, fmt.Sprintf("ip:10.0.0.%d", i), 5, window)
		require.NoError(t, err)
	}

	time.Sleep(window + 20*time.Millisecond)
	_, err := limiter.Check(ctx, "key:active", 5, time.Hour)
	require.NoError(t, err)

	limiter.sweep(window)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.buckets, 1)
	assert.Contains(t, limiter.buckets, "key:active")
}

func TestJanitor_StartAndStop(t *testing.T) {
	limiter := NewRateLimiter()
	limiter.StartJanitor(time.Minute)
	limiter.StartJanitor(time.Minute)
	limiter.StopJanitor()
	limiter.StopJanitor()
}
