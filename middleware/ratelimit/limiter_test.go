package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestLimiter_AllowWithinLimit(t *testing.T) {
	limiter := NewLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		result := limiter.Allow("10.0.0.1")
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if result.Limit != 5 {
			t.Errorf("expected Limit 5, got %d", result.Limit)
		}
		want := 5 - (i + 1)
		if result.Remaining != want {
			t.Errorf("request %d: expected Remaining %d, got %d", i+1, want, result.Remaining)
		}
	}
}

func TestLimiter_DenyOverLimit(t *testing.T) {
	limiter := NewLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if result := limiter.Allow("10.0.0.1"); !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	result := limiter.Allow("10.0.0.1")
	if result.Allowed {
		t.Fatal("4th request within window should be denied")
	}
	if result.Remaining != 0 {
		t.Errorf("expected Remaining 0, got %d", result.Remaining)
	}
	if result.RetryAfter <= 0 || result.RetryAfter > 60 {
		t.Errorf("expected RetryAfter in (0, 60], got %d", result.RetryAfter)
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)

	if result := limiter.Allow("10.0.0.1"); !result.Allowed {
		t.Fatal("first client should be allowed")
	}
	if result := limiter.Allow("10.0.0.1"); result.Allowed {
		t.Fatal("first client should be exhausted")
	}
	if result := limiter.Allow("10.0.0.2"); !result.Allowed {
		t.Fatal("second client should have its own bucket")
	}
}

func TestLimiter_WindowRollsForwardFromRequest(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(2, time.Minute)
	limiter.now = func() time.Time { return current }

	limiter.Allow("client")
	limiter.Allow("client")
	if result := limiter.Allow("client"); result.Allowed {
		t.Fatal("3rd request should be denied")
	}

	// Move well past the window; the next request reopens it and the new
	// reset time is anchored to that request, not the old boundary.
	current = current.Add(3 * time.Minute)
	result := limiter.Allow("client")
	if !result.Allowed {
		t.Fatal("request after the window expired should be admitted")
	}
	wantReset := current.Add(time.Minute)
	if !result.ResetAt.Equal(wantReset) {
		t.Errorf("expected ResetAt %v anchored to triggering request, got %v", wantReset, result.ResetAt)
	}
	if result.Remaining != 1 {
		t.Errorf("expected Remaining 1 after window reset, got %d", result.Remaining)
	}
}

func TestLimiter_RetryAfterWithinWindow(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(1, time.Minute)
	limiter.now = func() time.Time { return current }

	limiter.Allow("client")

	current = current.Add(40 * time.Second)
	result := limiter.Allow("client")
	if result.Allowed {
		t.Fatal("2nd request should be denied")
	}
	if result.RetryAfter != 20 {
		t.Errorf("expected RetryAfter 20s, got %d", result.RetryAfter)
	}
}

func TestLimiter_SweepEvictsStaleBuckets(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(10, time.Minute)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 4; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	if limiter.Size() != 4 {
		t.Fatalf("expected 4 buckets, got %d", limiter.Size())
	}

	// Buckets become eligible for eviction once they are stale for longer
	// than a full window past their reset time.
	current = current.Add(3 * time.Minute)
	limiter.Allow("10.0.0.99")

	if limiter.Size() != 1 {
		t.Errorf("expected stale buckets evicted, got %d", limiter.Size())
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	limiter := NewLimiter(0, 0)
	if limiter.maxRequests != 1 {
		t.Errorf("expected maxRequests clamped to 1, got %d", limiter.maxRequests)
	}
	if limiter.window != time.Minute {
		t.Errorf("expected window defaulted to 1m, got %v", limiter.window)
	}
}
