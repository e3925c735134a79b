// Package gate composes the admission stages into a single ordered
// evaluation: circuit breaker, rate limit, policy, budget. The first
// stage to reject terminates the evaluation with that stage's reason;
// every terminal decision is appended to the audit log before the
// result is returned.
package gate

import (
	"errors"
	"fmt"

	"github.com/invincible-jha/agent-benchmark-governance/internal/audit"
	"github.com/invincible-jha/agent-benchmark-governance/internal/breaker"
	"github.com/invincible-jha/agent-benchmark-governance/internal/budget"
	"github.com/invincible-jha/agent-benchmark-governance/internal/model"
	"github.com/invincible-jha/agent-benchmark-governance/internal/policy"
	"github.com/invincible-jha/agent-benchmark-governance/internal/ratelimit"
)

// Stages toggles individual checks for measurement runs. This is
// diagnostic configuration, deliberately separate from the request
// type; production always runs AllStages. Disabling a stage removes
// its contribution to the decision but never renames a reason code.
type Stages struct {
	Breaker   bool
	RateLimit bool
	Policy    bool
	Budget    bool
	Audit     bool
}

// AllStages is the production stage set.
func AllStages() Stages {
	return Stages{Breaker: true, RateLimit: true, Policy: true, Budget: true, Audit: true}
}

// Config wires the stage components into a gate. The gate holds
// references only; each component owns and guards its own state.
type Config struct {
	Breakers   *breaker.Registry
	Limiter    *ratelimit.Limiter
	Policies   *policy.Table
	Budgets    *budget.Tracker
	Audit      *audit.Log
	PolicyHash string
	Stages     Stages
}

// Gate is the admission-control orchestrator.
type Gate struct {
	breakers   *breaker.Registry
	limiter    *ratelimit.Limiter
	policies   *policy.Table
	budgets    *budget.Tracker
	log        *audit.Log
	policyHash string
	stages     Stages
}

// New creates a gate from wired components.
func New(cfg Config) *Gate {
	return &Gate{
		breakers:   cfg.Breakers,
		limiter:    cfg.Limiter,
		policies:   cfg.Policies,
		budgets:    cfg.Budgets,
		log:        cfg.Audit,
		policyHash: cfg.PolicyHash,
		stages:     cfg.Stages,
	}
}

// Evaluate runs the enabled stages in their fixed order and records the
// terminal decision. The returned error is reserved for malformed input
// and audit persistence failures; admission rejections are results, not
// errors. No audit record is written when an error is returned.
func (g *Gate) Evaluate(req model.Request) (model.Result, error) {
	if err := validate(req); err != nil {
		return model.Result{}, err
	}

	result := g.run(req)

	if g.stages.Audit && g.log != nil {
		decision := model.Deny
		if result.Allowed {
			decision = model.Allow
		}
		if _, err := g.log.Append(audit.Entry{
			Identity:   req.Identity,
			Action:     req.Action,
			Decision:   decision,
			Reason:     result.Reason,
			PolicyHash: g.policyHash,
			TraceID:    req.TraceID,
		}); err != nil {
			// Fail closed: an unrecordable decision is not a decision.
			return model.Result{}, err
		}
	}

	return result, nil
}

// run executes the stage pipeline without auditing.
func (g *Gate) run(req model.Request) model.Result {
	if g.stages.Breaker && g.breakers.For(req.Action).IsOpen() {
		return model.Result{Reason: model.ReasonCircuitOpen}
	}

	if g.stages.RateLimit && !g.limiter.Allow(req.Identity) {
		return model.Result{Reason: model.ReasonRateLimitExceeded}
	}

	if g.stages.Policy {
		out := policy.Evaluate(g.policies, req.Action, req.Trust, req.Consent, req.Scope)
		if !out.Permitted {
			return model.Result{Reason: out.Reason}
		}
	}

	// Budget runs last, so reserving here cannot be invalidated by a
	// later rejection.
	if g.stages.Budget && !g.budgets.Reserve(req.Identity, req.Cost) {
		return model.Result{Reason: model.ReasonBudgetExceeded}
	}

	return model.Result{Allowed: true, Reason: model.ReasonAllChecksPassed}
}

// ReportOutcome feeds the circuit breaker with the result of executing
// an admitted action. Success closes the action's breaker; failure
// advances it toward open.
func (g *Gate) ReportOutcome(action string, success bool) {
	b := g.breakers.For(action)
	if success {
		b.RecordSuccess()
	} else {
		b.RecordFailure()
	}
}

// ErrInvalidRequest wraps every malformed-input error so callers can
// tell a bad request apart from an audit persistence failure.
var ErrInvalidRequest = errors.New("invalid request")

// validate rejects malformed input outright. Coercing these would turn
// programming errors into silent policy outcomes.
func validate(req model.Request) error {
	if req.Identity == "" {
		return fmt.Errorf("gate: %w: empty identity", ErrInvalidRequest)
	}
	if req.Action == "" {
		return fmt.Errorf("gate: %w: empty action", ErrInvalidRequest)
	}
	if !req.Trust.Valid() {
		return fmt.Errorf("gate: %w: unknown trust level %d", ErrInvalidRequest, int(req.Trust))
	}
	if req.Cost < 0 {
		return fmt.Errorf("gate: %w: negative cost %v", ErrInvalidRequest, req.Cost)
	}
	return nil
}
