// Package budget enforces static per-identity spend allocations.
// Allocations are supplied by an external authority; an identity with
// no allocation fails every check (fail-closed).
package budget

import "sync"

type entry struct {
	mu         sync.Mutex
	allocation float64
	spent      float64
}

// Tracker holds per-identity allocations and cumulative spend.
// Spend is monotonically non-decreasing.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewTracker creates a tracker seeded with the given allocations.
func NewTracker(allocations map[string]float64) *Tracker {
	t := &Tracker{entries: make(map[string]*entry, len(allocations))}
	for id, alloc := range allocations {
		t.entries[id] = &entry{allocation: alloc}
	}
	return t
}

func (t *Tracker) lookup(identity string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[identity]
}

// Check reports whether spending cost keeps the identity within its
// allocation. Cost must be non-negative. Checking does not debit;
// callers that need check-then-commit atomicity use Reserve.
func (t *Tracker) Check(identity string, cost float64) bool {
	e := t.lookup(identity)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spent+cost <= e.allocation
}

// Record debits cost against the identity's allocation. Recording for
// an identity with no allocation is a no-op: there is nothing to debit
// against and the check already failed.
func (t *Tracker) Record(identity string, cost float64) {
	e := t.lookup(identity)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.spent += cost
	e.mu.Unlock()
}

// Reserve is the serialized check-then-commit: it debits cost only if
// the projected spend stays within the allocation. Concurrent callers
// for the same identity cannot both pass the check and overshoot.
func (t *Tracker) Reserve(identity string, cost float64) bool {
	e := t.lookup(identity)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spent+cost > e.allocation {
		return false
	}
	e.spent += cost
	return true
}

// Spent returns the identity's cumulative spend and whether an
// allocation exists.
func (t *Tracker) Spent(identity string) (float64, bool) {
	e := t.lookup(identity)
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spent, true
}
