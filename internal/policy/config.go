package policy

import (
	"fmt"

	"github.com/invincible-jha/agent-benchmark-governance/internal/model"
)

// Rule is the static permission for one action as written in YAML.
// Rules are supplied by an external authority and immutable after load.
type Rule struct {
	Action          string   `yaml:"action"`
	MinTrust        string   `yaml:"min_trust"`
	RequiresConsent bool     `yaml:"requires_consent"`
	AllowedScopes   []string `yaml:"allowed_scopes"`
}

type compiledRule struct {
	minTrust        model.TrustLevel
	requiresConsent bool
	allowedScopes   map[string]bool
}

// Table is the immutable action → rule mapping consulted by Evaluate.
type Table struct {
	rules map[string]compiledRule
}

// NewTable compiles raw rules into a lookup table. Duplicate action
// names and unknown trust ranks are configuration errors.
func NewTable(rules []Rule) (*Table, error) {
	t := &Table{rules: make(map[string]compiledRule, len(rules))}
	for _, r := range rules {
		if r.Action == "" {
			return nil, fmt.Errorf("policy: rule with empty action")
		}
		if _, dup := t.rules[r.Action]; dup {
			return nil, fmt.Errorf("policy: duplicate rule for action %q", r.Action)
		}
		minTrust, err := model.ParseTrustLevel(r.MinTrust)
		if err != nil {
			return nil, fmt.Errorf("policy: rule %q: %w", r.Action, err)
		}
		scopes := make(map[string]bool, len(r.AllowedScopes))
		for _, s := range r.AllowedScopes {
			scopes[s] = true
		}
		t.rules[r.Action] = compiledRule{
			minTrust:        minTrust,
			requiresConsent: r.RequiresConsent,
			allowedScopes:   scopes,
		}
	}
	return t, nil
}

// Len returns the number of configured rules.
func (t *Table) Len() int {
	return len(t.rules)
}
