package ratelimit

import (
	"math"
	"sync"
	"time"
)

// bucket tracks request counts for a single client identity.
type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter implements fixed-window admission control keyed by client
// identity. The window is opened by the first request and rolls forward
// from the request that finds it expired, so resetAt always lies within
// one window of some actual request. This mirrors the behavior the
// public retryAfter contract depends on; it is not a sliding window.
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	maxRequests int
	window      time.Duration
	lastSweep   time.Time
	now         func() time.Time
}

// RateLimitResult contains the outcome of an admission check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	Limit      int
	RetryAfter int // seconds, rounded up; zero when allowed
}

// NewLimiter creates a limiter allowing maxRequests per window per key.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		buckets:     make(map[string]*bucket),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow checks whether a request from the given identity is admitted.
// Denial is a normal outcome, never an error.
func (l *Limiter) Allow(key string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepStale(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{count: 0, resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}

	// Window expired: roll it forward from this request.
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(l.window)
	}

	if b.count >= l.maxRequests {
		return RateLimitResult{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    b.resetAt,
			Limit:      l.maxRequests,
			RetryAfter: int(math.Ceil(b.resetAt.Sub(now).Seconds())),
		}
	}

	b.count++
	remaining := l.maxRequests - b.count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   b.resetAt,
		Limit:     l.maxRequests,
	}
}

// sweepStale evicts buckets whose window expired more than one full
// window ago. The scan is amortized: it runs at most once per window,
// piggybacked on Allow, so there is no dedicated cleanup goroutine.
// Caller must hold l.mu.
func (l *Limiter) sweepStale(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.resetAt) > l.window {
			delete(l.buckets, key)
		}
	}
}

// Size returns the number of tracked identities.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
