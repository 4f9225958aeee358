package quota

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type uidKey struct{}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter() (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter()
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter()

	for i := 0; i < 10; i++ {
		if !rl.Allow(1, 10) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow(1, 10) {
		t.Error("11th request should be denied")
	}
}

func TestRateLimiterUnlimited(t *testing.T) {
	rl, _ := newTestLimiter()
	for i := 0; i < 1000; i++ {
		if !rl.Allow(1, 0) {
			t.Fatalf("request %d should be allowed (unlimited)", i+1)
		}
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl, clock := newTestLimiter()

	for i := 0; i < 60; i++ {
		rl.Allow(1, 60)
	}
	if rl.Allow(1, 60) {
		t.Error("should be rate limited after exhausting tokens")
	}
	if ra := rl.RetryAfter(1, 60); ra < 1 {
		t.Errorf("expected retry-after >= 1, got %d", ra)
	}

	clock.advance(1100 * time.Millisecond)
	if !rl.Allow(1, 60) {
		t.Error("should be allowed after refill")
	}
}

func TestRateLimiterMultipleUsers(t *testing.T) {
	rl, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		rl.Allow(1, 5)
	}
	if rl.Allow(1, 5) {
		t.Error("user 1 should be rate limited")
	}
	if !rl.Allow(2, 5) {
		t.Error("user 2 should not be affected by user 1's rate limit")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter()

	rl.Allow(1, 10)
	clock.advance(2 * time.Hour)
	rl.Allow(2, 10)

	rl.Cleanup(time.Hour)
	if len(rl.buckets) != 1 {
		t.Errorf("expected 1 bucket after cleanup, got %d", len(rl.buckets))
	}
	if _, ok := rl.buckets[2]; !ok {
		t.Error("recent bucket should survive cleanup")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter()
	user := func(ctx context.Context) (int, bool) {
		id, ok := ctx.Value(uidKey{}).(int)
		return id, ok
	}
	h := RateLimitMiddleware(rl, 2, user)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(withUser bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
		if withUser {
			req = req.WithContext(context.WithValue(req.Context(), uidKey{}, 7))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := call(true); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i+1, w.Code)
		}
	}
	w := call(true)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if w := call(false); w.Code != http.StatusNoContent {
		t.Errorf("anonymous request should pass, got %d", w.Code)
	}
}
