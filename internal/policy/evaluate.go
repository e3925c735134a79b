// Package policy evaluates one request against a static capability
// table. Absence of an explicit rule is a denial, never an implicit
// allow.
package policy

import "github.com/invincible-jha/agent-benchmark-governance/internal/model"

// Outcome is the result of one policy evaluation.
type Outcome struct {
	Permitted bool
	Reason    string
}

// Evaluate checks a request against the rule for its action.
//
// Check order (must not be changed — the first failing check names
// the reason):
//  1. Missing rule
//  2. Trust rank below the rule's minimum
//  3. Consent required but not granted
//  4. Requested scope outside the allowed set
func Evaluate(t *Table, action string, trust model.TrustLevel, consentGranted bool, requestedScope string) Outcome {
	rule, ok := t.rules[action]
	if !ok {
		return Outcome{Reason: model.ReasonNoPolicyForAction}
	}
	if trust < rule.minTrust {
		return Outcome{Reason: model.ReasonInsufficientTrust}
	}
	if rule.requiresConsent && !consentGranted {
		return Outcome{Reason: model.ReasonConsentRequired}
	}
	if !rule.allowedScopes[requestedScope] {
		return Outcome{Reason: model.ReasonScopeNotAllowed}
	}
	return Outcome{Permitted: true, Reason: model.ReasonPolicySatisfied}
}
