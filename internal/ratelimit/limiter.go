// Package ratelimit implements per-identity token buckets with
// continuous refill. Buckets are created at full capacity on first
// reference and never evicted; stale-identity GC is an external
// concern.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// Limiter admits or rejects one unit of work per call, per identity.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	refill   float64 // tokens per second
	now      func() time.Time
}

// New creates a limiter where each identity's bucket holds at most
// capacity tokens and refills at refillPerSecond.
func New(capacity, refillPerSecond float64) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		refill:   refillPerSecond,
		now:      time.Now,
	}
}

// Allow refills the identity's bucket for the elapsed time, then
// consumes one token if at least one is available. Refill and
// consumption are atomic with respect to that bucket; a rejected call
// keeps the refill already applied.
func (l *Limiter) Allow(identity string) bool {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.buckets[identity] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	// Guard against reordered timestamps from concurrent callers.
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Tokens reports the identity's current balance without consuming.
// Identities never seen report full capacity.
func (l *Limiter) Tokens(identity string) float64 {
	l.mu.Lock()
	b, ok := l.buckets[identity]
	l.mu.Unlock()
	if !ok {
		return l.capacity
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}
