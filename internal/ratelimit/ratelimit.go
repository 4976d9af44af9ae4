// Package ratelimit throttles how often each session may send a question.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket represents a token bucket for rate limiting.
type TokenBucket struct {
	lastRefill   time.Time
	lastUsed     time.Time
	refillPeriod time.Duration
	capacity     int
	tokens       int
	mu           sync.Mutex
}

func newTokenBucket(capacity int, refillPeriod time.Duration, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity, // Start full
		refillPeriod: refillPeriod,
		lastRefill:   now,
		lastUsed:     now,
	}
}

func (tb *TokenBucket) allow(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	tb.lastUsed = now

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// refill adds one token per elapsed period, capped at capacity.
func (tb *TokenBucket) refill(now time.Time) {
	periods := int(now.Sub(tb.lastRefill) / tb.refillPeriod)
	if periods <= 0 {
		return
	}

	tb.tokens = min(tb.capacity, tb.tokens+periods)
	tb.lastRefill = tb.lastRefill.Add(time.Duration(periods) * tb.refillPeriod)
}

// Limiter keeps one token bucket per session.
type Limiter struct {
	buckets      map[string]*TokenBucket
	now          func() time.Time
	capacity     int
	refillPeriod time.Duration
	mu           sync.Mutex
}

// New creates a limiter allowing a burst of capacity questions, then one
// more every refillPeriod.
func New(capacity int, refillPeriod time.Duration) *Limiter {
	return &Limiter{
		buckets:      make(map[string]*TokenBucket),
		now:          time.Now,
		capacity:     max(1, capacity),
		refillPeriod: max(time.Millisecond, refillPeriod),
	}
}

// Allow consumes a token for sessionID and reports whether one was available.
func (l *Limiter) Allow(sessionID string) bool {
	now := l.now()

	l.mu.Lock()
	bucket, exists := l.buckets[sessionID]
	if !exists {
		bucket = newTokenBucket(l.capacity, l.refillPeriod, now)
		l.buckets[sessionID] = bucket
	}
	l.mu.Unlock()

	return bucket.allow(now)
}

// CleanupStale removes buckets unused for maxAge and returns how many went.
func (l *Limiter) CleanupStale(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxAge)
	removed := 0

	for id, bucket := range l.buckets {
		bucket.mu.Lock()
		if bucket.lastUsed.Before(cutoff) {
			delete(l.buckets, id)
			removed++
		}
		bucket.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked sessions.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
