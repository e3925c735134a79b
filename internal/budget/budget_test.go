package budget

import (
	"sync"
	"testing"
)

func TestMissingAllocationFailsClosed(t *testing.T) {
	tr := NewTracker(nil)
	if tr.Check("agent-1", 0) {
		t.Error("expected check to fail for identity with no allocation")
	}
	if tr.Reserve("agent-1", 0) {
		t.Error("expected reserve to fail for identity with no allocation")
	}
}

func TestCheckBoundary(t *testing.T) {
	tr := NewTracker(map[string]float64{"agent-1": 10})
	if !tr.Check("agent-1", 10) {
		t.Error("expected spent+cost == allocation to pass")
	}
	if tr.Check("agent-1", 10.01) {
		t.Error("expected spent+cost > allocation to fail")
	}
}

func TestCheckDoesNotDebit(t *testing.T) {
	tr := NewTracker(map[string]float64{"agent-1": 5})
	for i := 0; i < 10; i++ {
		tr.Check("agent-1", 5)
	}
	spent, ok := tr.Spent("agent-1")
	if !ok || spent != 0 {
		t.Errorf("expected zero spend after checks, got %v", spent)
	}
}

func TestRecordThenCheck(t *testing.T) {
	tr := NewTracker(map[string]float64{"agent-1": 100})
	if !tr.Check("agent-1", 40) {
		t.Fatal("expected initial check to pass")
	}
	tr.Record("agent-1", 40)

	// allocation - spent + 1 must now fail.
	if tr.Check("agent-1", 61) {
		t.Error("expected check above remaining allocation to fail")
	}
	if !tr.Check("agent-1", 60) {
		t.Error("expected check at remaining allocation to pass")
	}
}

func TestRecordUnknownIdentityIsNoop(t *testing.T) {
	tr := NewTracker(map[string]float64{"agent-1": 10})
	tr.Record("ghost", 5)
	if _, ok := tr.Spent("ghost"); ok {
		t.Error("expected no entry created for unknown identity")
	}
}

func TestReserveCommitsOnSuccessOnly(t *testing.T) {
	tr := NewTracker(map[string]float64{"agent-1": 10})
	if !tr.Reserve("agent-1", 8) {
		t.Fatal("expected reserve within allocation")
	}
	if tr.Reserve("agent-1", 3) {
		t.Error("expected reserve beyond allocation to fail")
	}
	spent, _ := tr.Spent("agent-1")
	if spent != 8 {
		t.Errorf("expected failed reserve to leave spend unchanged, got %v", spent)
	}
}

func TestConcurrentReservesNeverOvershoot(t *testing.T) {
	tr := NewTracker(map[string]float64{"agent-1": 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Reserve("agent-1", 1) {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 50 {
		t.Errorf("expected exactly 50 grants, got %d", granted)
	}
	spent, _ := tr.Spent("agent-1")
	if spent != 50 {
		t.Errorf("expected spend 50, got %v", spent)
	}
}
