package policy

import (
	"testing"

	"github.com/invincible-jha/agent-benchmark-governance/internal/model"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]Rule{
		{
			Action:          "send_email",
			MinTrust:        "high",
			RequiresConsent: true,
			AllowedScopes:   []string{"work", "support"},
		},
		{
			Action:        "read_calendar",
			MinTrust:      "low",
			AllowedScopes: []string{"personal"},
		},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return table
}

// --- Table compilation ---

func TestNewTableDuplicateAction(t *testing.T) {
	_, err := NewTable([]Rule{
		{Action: "a", MinTrust: "low"},
		{Action: "a", MinTrust: "high"},
	})
	if err == nil {
		t.Error("expected duplicate action error")
	}
}

func TestNewTableUnknownTrust(t *testing.T) {
	_, err := NewTable([]Rule{{Action: "a", MinTrust: "superuser"}})
	if err == nil {
		t.Error("expected unknown trust rank error")
	}
}

func TestNewTableEmptyAction(t *testing.T) {
	_, err := NewTable([]Rule{{MinTrust: "low"}})
	if err == nil {
		t.Error("expected empty action error")
	}
}

// --- Evaluation order ---

func TestUnconfiguredActionAlwaysDenies(t *testing.T) {
	table := testTable(t)
	for _, trust := range []model.TrustLevel{model.TrustNone, model.TrustOwner} {
		out := Evaluate(table, "delete_account", trust, true, "work")
		if out.Permitted {
			t.Errorf("trust %s: expected deny for unconfigured action", trust)
		}
		if out.Reason != model.ReasonNoPolicyForAction {
			t.Errorf("trust %s: expected %s, got %s", trust, model.ReasonNoPolicyForAction, out.Reason)
		}
	}
}

func TestInsufficientTrust(t *testing.T) {
	out := Evaluate(testTable(t), "send_email", model.TrustMedium, true, "work")
	if out.Permitted || out.Reason != model.ReasonInsufficientTrust {
		t.Errorf("expected %s, got %+v", model.ReasonInsufficientTrust, out)
	}
}

func TestTrustCheckedBeforeConsent(t *testing.T) {
	// Both trust and consent fail: trust must name the reason.
	out := Evaluate(testTable(t), "send_email", model.TrustLow, false, "work")
	if out.Reason != model.ReasonInsufficientTrust {
		t.Errorf("expected trust check first, got %s", out.Reason)
	}
}

func TestConsentRequired(t *testing.T) {
	out := Evaluate(testTable(t), "send_email", model.TrustHigh, false, "work")
	if out.Permitted || out.Reason != model.ReasonConsentRequired {
		t.Errorf("expected %s, got %+v", model.ReasonConsentRequired, out)
	}
}

func TestScopeNotAllowed(t *testing.T) {
	out := Evaluate(testTable(t), "send_email", model.TrustHigh, true, "marketing")
	if out.Permitted || out.Reason != model.ReasonScopeNotAllowed {
		t.Errorf("expected %s, got %+v", model.ReasonScopeNotAllowed, out)
	}
}

func TestPolicySatisfied(t *testing.T) {
	out := Evaluate(testTable(t), "send_email", model.TrustHigh, true, "support")
	if !out.Permitted || out.Reason != model.ReasonPolicySatisfied {
		t.Errorf("expected permit with %s, got %+v", model.ReasonPolicySatisfied, out)
	}
}

func TestExactMinimumTrustAdmits(t *testing.T) {
	out := Evaluate(testTable(t), "read_calendar", model.TrustLow, false, "personal")
	if !out.Permitted {
		t.Errorf("expected permit at exact minimum trust, got %+v", out)
	}
}
