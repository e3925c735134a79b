// Package config loads the externally supplied gate configuration:
// breaker and limiter parameters, the policy rule table, per-identity
// budget allocations, and trust-level assignments. The core consumes
// all of it read-only — nothing here is inferred or adapted at runtime.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/invincible-jha/agent-benchmark-governance/internal/model"
	"github.com/invincible-jha/agent-benchmark-governance/internal/policy"
)

// BreakerConfig holds circuit breaker parameters shared by all
// protected resources.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

// RateLimitConfig holds token bucket parameters shared by all
// identities.
type RateLimitConfig struct {
	Capacity        float64 `yaml:"capacity"`
	RefillPerSecond float64 `yaml:"refill_per_second"`
}

// Config is the full gate configuration file.
type Config struct {
	Breaker   BreakerConfig      `yaml:"breaker"`
	RateLimit RateLimitConfig    `yaml:"rate_limit"`
	Policies  []policy.Rule      `yaml:"policies"`
	Budgets   map[string]float64 `yaml:"budgets"`
	Trust     map[string]string  `yaml:"trust"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Capacity:        10,
			RefillPerSecond: 1,
		},
		Policies: []policy.Rule{
			{
				Action:        "read_calendar",
				MinTrust:      "low",
				AllowedScopes: []string{"personal", "work"},
			},
			{
				Action:          "send_email",
				MinTrust:        "high",
				RequiresConsent: true,
				AllowedScopes:   []string{"work"},
			},
		},
		Budgets: map[string]float64{},
		Trust:   map[string]string{},
	}
}

// DefaultPath is the config location used when no path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gate.yaml"
	}
	return filepath.Join(home, ".agentgate", "gate.yaml")
}

// Load reads a YAML config file. Empty path falls back to DefaultPath;
// a missing file yields defaults. Values are validated on load so bad
// configuration fails fast instead of surfacing mid-evaluation.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads the configuration and returns the SHA-256 of the
// raw bytes on disk, carried into every audit record so decisions can
// be correlated with the rule set that produced them. When defaults are
// used the hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			h := sha256.Sum256(nil)
			return cfg, hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("config: read %s: %w", path, err)
	}

	// Start with defaults; YAML overwrites only specified fields.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config: %s: %w", path, err)
	}

	h := sha256.Sum256(data)
	return cfg, hex.EncodeToString(h[:]), nil
}

// Validate checks the configuration for malformed values: unknown trust
// ranks, negative budgets, non-positive breaker and limiter parameters.
func (c *Config) Validate() error {
	if c.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("breaker failure_threshold must be positive")
	}
	if c.Breaker.Cooldown <= 0 {
		return fmt.Errorf("breaker cooldown must be positive")
	}
	if c.RateLimit.Capacity <= 0 {
		return fmt.Errorf("rate_limit capacity must be positive")
	}
	if c.RateLimit.RefillPerSecond < 0 {
		return fmt.Errorf("rate_limit refill_per_second must be non-negative")
	}
	for id, alloc := range c.Budgets {
		if alloc < 0 {
			return fmt.Errorf("budget for %q must be non-negative", id)
		}
	}
	for id, level := range c.Trust {
		if _, err := model.ParseTrustLevel(level); err != nil {
			return fmt.Errorf("trust assignment for %q: %w", id, err)
		}
	}
	// Rule-level validation (duplicates, trust ranks) happens in
	// policy.NewTable; run it here so Load fails fast.
	if _, err := policy.NewTable(c.Policies); err != nil {
		return err
	}
	return nil
}

// TrustFor resolves an identity's assigned trust level. Identities
// without an assignment are TrustNone (fail-closed).
func (c *Config) TrustFor(identity string) model.TrustLevel {
	level, ok := c.Trust[identity]
	if !ok {
		return model.TrustNone
	}
	parsed, err := model.ParseTrustLevel(level)
	if err != nil {
		return model.TrustNone
	}
	return parsed
}

// YAML renders the configuration for `agentgate init`.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return data, nil
}
