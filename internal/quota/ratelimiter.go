// Package quota enforces per-user request rate limits.
package quota

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements per-user token bucket rate limiting.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[int]*tokenBucket
	now     func() time.Time
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a new per-user rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[int]*tokenBucket),
		now:     time.Now,
	}
}

// Allow checks if a request from the given user should be allowed.
// rpm=0 means unlimited.
func (rl *RateLimiter) Allow(userID int, rpm int) bool {
	if rpm <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.buckets[userID]
	if !ok {
		bucket = &tokenBucket{
			tokens:     float64(rpm),
			maxTokens:  float64(rpm),
			refillRate: float64(rpm) / 60.0,
			lastRefill: now,
		}
		rl.buckets[userID] = bucket
	}

	if bucket.maxTokens != float64(rpm) {
		bucket.maxTokens = float64(rpm)
		bucket.refillRate = float64(rpm) / 60.0
	}

	elapsed := now.Sub(bucket.lastRefill).Seconds()
	bucket.tokens = min(bucket.tokens+elapsed*bucket.refillRate, bucket.maxTokens)
	bucket.lastRefill = now

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// RetryAfter returns the number of seconds until the next token is available.
func (rl *RateLimiter) RetryAfter(userID int, rpm int) int {
	if rpm <= 0 {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[userID]
	if !ok || bucket.tokens >= 1 {
		return 0
	}
	needed := 1.0 - bucket.tokens
	return int(needed/bucket.refillRate) + 1
}

// Cleanup removes buckets for users that haven't been seen recently.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxAge)
	for userID, bucket := range rl.buckets {
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, userID)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(maxAge)
		}
	}
}
