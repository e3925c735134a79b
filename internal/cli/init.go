package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invincible-jha/agent-benchmark-governance/internal/config"
)

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default gate configuration",
	Long: "Creates ~/.agentgate/gate.yaml with the built-in defaults: breaker and\n" +
		"rate limit parameters, example policy rules, and empty budget and trust\n" +
		"tables for the external authority to fill in.",
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("exists: %s (use --force to overwrite)\n", path)
		return nil
	}

	data, err := config.Default().YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("created: %s\n", path)
	return nil
}
