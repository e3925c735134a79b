package gate

import (
	"github.com/invincible-jha/agent-benchmark-governance/internal/audit"
	"github.com/invincible-jha/agent-benchmark-governance/internal/breaker"
	"github.com/invincible-jha/agent-benchmark-governance/internal/budget"
	"github.com/invincible-jha/agent-benchmark-governance/internal/config"
	"github.com/invincible-jha/agent-benchmark-governance/internal/policy"
	"github.com/invincible-jha/agent-benchmark-governance/internal/ratelimit"
)

// FromConfig assembles a production gate (all stages enabled) from a
// loaded configuration. The audit log is passed in separately so it can
// outlive configuration reloads: the chain must stay unbroken while
// rules change around it.
func FromConfig(cfg *config.Config, policyHash string, log *audit.Log) (*Gate, error) {
	table, err := policy.NewTable(cfg.Policies)
	if err != nil {
		return nil, err
	}

	return New(Config{
		Breakers:   breaker.NewRegistry(cfg.Breaker.FailureThreshold, cfg.Breaker.Cooldown),
		Limiter:    ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond),
		Policies:   table,
		Budgets:    budget.NewTracker(cfg.Budgets),
		Audit:      log,
		PolicyHash: policyHash,
		Stages:     AllStages(),
	}), nil
}
