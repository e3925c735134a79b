package model

import "fmt"

// TrustLevel is the manually assigned rank gating which actions an
// identity may request. Levels form a total order; the gate never
// computes or adapts them — they are supplied by an external authority.
type TrustLevel int

const (
	TrustNone TrustLevel = iota
	TrustLow
	TrustMedium
	TrustHigh
	TrustOwner
)

var trustNames = map[TrustLevel]string{
	TrustNone:   "none",
	TrustLow:    "low",
	TrustMedium: "medium",
	TrustHigh:   "high",
	TrustOwner:  "owner",
}

// String returns the canonical lowercase name of the level.
func (t TrustLevel) String() string {
	if name, ok := trustNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Valid reports whether t is one of the five defined ranks.
func (t TrustLevel) Valid() bool {
	_, ok := trustNames[t]
	return ok
}

// ParseTrustLevel converts a configuration string into a TrustLevel.
// Unknown ranks are a configuration error, not a default.
func ParseTrustLevel(s string) (TrustLevel, error) {
	switch s {
	case "none":
		return TrustNone, nil
	case "low":
		return TrustLow, nil
	case "medium":
		return TrustMedium, nil
	case "high":
		return TrustHigh, nil
	case "owner":
		return TrustOwner, nil
	default:
		return TrustNone, fmt.Errorf("unknown trust level %q", s)
	}
}

// Decision is the terminal outcome of one gate evaluation.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// Reason codes form a fixed vocabulary shared with downstream consumers.
// Disabling a stage removes its contribution but never renames a code.
const (
	ReasonCircuitOpen       = "circuit_open"
	ReasonRateLimitExceeded = "rate_limit_exceeded"
	ReasonNoPolicyForAction = "no_policy_for_action"
	ReasonInsufficientTrust = "insufficient_trust_level"
	ReasonConsentRequired   = "consent_required"
	ReasonScopeNotAllowed   = "scope_not_allowed"
	ReasonBudgetExceeded    = "budget_exceeded"
	ReasonPolicySatisfied   = "policy_satisfied"
	ReasonAllChecksPassed   = "all_checks_passed"
)

// Request is one evaluation unit. Fields are read-only for the duration
// of a single gate evaluation.
type Request struct {
	Identity string
	Trust    TrustLevel
	Action   string
	Scope    string
	Cost     float64
	Consent  bool
	TraceID  string
}

// Result is the outcome of one evaluation. Reason is always present,
// even on allow.
type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}
