// Package breaker implements a two-state circuit breaker keyed by
// protected resource. There is no half-open trial phase: after the
// cooldown elapses the breaker closes directly and the failure counter
// resets to zero.
package breaker

import (
	"sync"
	"time"
)

// Breaker tracks consecutive failures for one protected resource.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openedAt  time.Time // zero while closed
	now       func() time.Time
}

// New creates a closed breaker that opens after threshold consecutive
// failures and auto-closes once cooldown has elapsed.
func New(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// IsOpen reports whether the breaker is rejecting work. When the
// cooldown has elapsed the breaker transitions back to closed and the
// failure counter resets before returning false.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openedAt.IsZero() {
		return false
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		b.failures = 0
		b.openedAt = time.Time{}
		return false
	}
	return true
}

// RecordSuccess resets the failure counter and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openedAt = time.Time{}
}

// RecordFailure increments the consecutive-failure counter. Reaching
// the threshold opens the breaker and stamps the open time; further
// failures while open do not extend the cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold && b.openedAt.IsZero() {
		b.openedAt = b.now()
	}
}

// Registry holds one breaker per protected resource, created lazily.
// The registry lock covers only map access; each breaker carries its
// own lock so different resources do not contend.
type Registry struct {
	mu        sync.Mutex
	breakers  map[string]*Breaker
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// NewRegistry creates an empty registry. All breakers share the same
// threshold and cooldown, supplied by external configuration.
func NewRegistry(threshold int, cooldown time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// For returns the breaker for a resource, creating a closed one on
// first reference. Entries are never evicted by the registry.
func (r *Registry) For(resource string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[resource]
	if !ok {
		b = New(r.threshold, r.cooldown)
		b.now = r.now
		r.breakers[resource] = b
	}
	return b
}
