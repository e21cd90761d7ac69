package handler

import (
	"sync"
	"time"
)

// tokenBucket is an in-memory per-key rate limiter.
type tokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64
	capacity float64
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

// newTokenBucket allows capacity requests per key in a burst, refilled at
// rate tokens per second. Idle keys are dropped periodically.
func newTokenBucket(rate float64, capacity int) *tokenBucket {
	tb := &tokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: float64(capacity),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go tb.cleanupLoop(5 * time.Minute)
	return tb
}

// Allow consumes one token for key and reports whether one was available.
func (tb *tokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Stop ends the cleanup goroutine.
func (tb *tokenBucket) Stop() {
	tb.stopOnce.Do(func() { close(tb.done) })
}

func (tb *tokenBucket) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tb.cleanup(10 * time.Minute)
		case <-tb.done:
			return
		}
	}
}

func (tb *tokenBucket) cleanup(idle time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	cutoff := tb.now().Add(-idle)
	for key, b := range tb.buckets {
		if b.last.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
}
