package breaker

import (
	"testing"
	"time"
)

// fakeClock returns a now func backed by a mutable instant.
func fakeClock(start time.Time) (func() time.Time, func(d time.Duration)) {
	current := start
	now := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return now, advance
}

func TestStartsClosed(t *testing.T) {
	b := New(3, time.Minute)
	if b.IsOpen() {
		t.Error("expected new breaker to be closed")
	}
}

func TestOpensAtThreshold(t *testing.T) {
	b := New(3, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	if b.IsOpen() {
		t.Error("expected breaker closed below threshold")
	}
	b.RecordFailure()
	if !b.IsOpen() {
		t.Error("expected breaker open at threshold")
	}
}

func TestCooldownClosesAndResetsCounter(t *testing.T) {
	now, advance := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := New(2, time.Minute)
	b.now = now

	b.RecordFailure()
	b.RecordFailure()
	if !b.IsOpen() {
		t.Fatal("expected breaker open")
	}

	advance(time.Minute)
	if b.IsOpen() {
		t.Fatal("expected breaker closed after cooldown")
	}

	// Counter reset: a single failure must not re-open.
	b.RecordFailure()
	if b.IsOpen() {
		t.Error("expected breaker closed after one post-cooldown failure")
	}
	b.RecordFailure()
	if !b.IsOpen() {
		t.Error("expected breaker open after threshold reached again")
	}
}

func TestSuccessResets(t *testing.T) {
	b := New(2, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	if !b.IsOpen() {
		t.Fatal("expected breaker open")
	}
	b.RecordSuccess()
	if b.IsOpen() {
		t.Error("expected breaker closed after success")
	}
	b.RecordFailure()
	if b.IsOpen() {
		t.Error("expected counter reset by success")
	}
}

func TestFailuresBeyondThresholdKeepOpenStamp(t *testing.T) {
	now, advance := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := New(2, time.Minute)
	b.now = now

	b.RecordFailure()
	b.RecordFailure()
	advance(30 * time.Second)
	b.RecordFailure() // must not restart the cooldown
	advance(30 * time.Second)
	if b.IsOpen() {
		t.Error("expected cooldown measured from first opening")
	}
}

func TestRegistryLazyCreation(t *testing.T) {
	r := NewRegistry(1, time.Minute)
	a := r.For("payments")
	b := r.For("email")

	a.RecordFailure()
	if !a.IsOpen() {
		t.Error("expected payments breaker open")
	}
	if b.IsOpen() {
		t.Error("expected email breaker unaffected")
	}
	if r.For("payments") != a {
		t.Error("expected same breaker instance per resource")
	}
}
