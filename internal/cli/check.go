package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invincible-jha/agent-benchmark-governance/internal/audit"
	"github.com/invincible-jha/agent-benchmark-governance/internal/config"
	"github.com/invincible-jha/agent-benchmark-governance/internal/gate"
	"github.com/invincible-jha/agent-benchmark-governance/internal/model"
)

var (
	checkConfig   string
	checkIdentity string
	checkTrust    string
	checkAction   string
	checkScope    string
	checkCost     float64
	checkConsent  bool
	checkAuditLog string
	checkFormat   string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkConfig, "config", "", "Path to gate YAML config (default ~/.agentgate/gate.yaml)")
	checkCmd.Flags().StringVar(&checkIdentity, "identity", "", "Requesting identity (required)")
	checkCmd.Flags().StringVar(&checkTrust, "trust", "", "Trust level override (none|low|medium|high|owner); defaults to the configured assignment")
	checkCmd.Flags().StringVar(&checkAction, "action", "", "Action or tool name (required)")
	checkCmd.Flags().StringVar(&checkScope, "scope", "", "Requested scope")
	checkCmd.Flags().Float64Var(&checkCost, "cost", 0, "Projected cost of the action")
	checkCmd.Flags().BoolVar(&checkConsent, "consent", false, "Whether consent was granted")
	checkCmd.Flags().StringVar(&checkAuditLog, "audit-log", "", "Path to audit log JSONL file (omit for in-memory)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
	checkCmd.MarkFlagRequired("identity")
	checkCmd.MarkFlagRequired("action")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a single action request through the gate",
	Long: "Builds the gate from configuration, evaluates one request, and prints\n" +
		"the decision.\n\n" +
		"Exit code 0 if allowed, 1 if denied.\n" +
		"Use in scripts to gate tool execution on admission control.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, hash, err := config.LoadWithHash(checkConfig)
	if err != nil {
		return err
	}

	var log *audit.Log
	if checkAuditLog != "" {
		log, err = audit.Open(checkAuditLog)
		if err != nil {
			return err
		}
		defer log.Close()
	} else {
		log = audit.New()
	}

	g, err := gate.FromConfig(cfg, hash, log)
	if err != nil {
		return err
	}

	trust := cfg.TrustFor(checkIdentity)
	if checkTrust != "" {
		trust, err = model.ParseTrustLevel(checkTrust)
		if err != nil {
			return err
		}
	}

	result, err := g.Evaluate(model.Request{
		Identity: checkIdentity,
		Trust:    trust,
		Action:   checkAction,
		Scope:    checkScope,
		Cost:     checkCost,
		Consent:  checkConsent,
	})
	if err != nil {
		return err
	}

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(out))
	default:
		verdict := "DENY"
		if result.Allowed {
			verdict = "ALLOW"
		}
		fmt.Printf("%s  %s  (%s)\n", verdict, checkAction, result.Reason)
	}

	if !result.Allowed {
		os.Exit(1)
	}
	return nil
}
