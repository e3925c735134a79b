// Package cli implements the agentgate command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "Admission control gate for agent actions",
	Long: "Evaluates agent action requests through an ordered pipeline of guard\n" +
		"stages — circuit breaker, rate limit, capability policy, spend budget —\n" +
		"and records every decision in a tamper-evident hash-chained audit log.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
