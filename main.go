package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/helmcode/kubectl-remediate/cmd"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	// API keys and provider selection may live in a local .env.
	_ = godotenv.Load()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kubectl-remediate",
		Short: "AI-powered Kubernetes remediation",
		Long: `kubectl-remediate investigates cluster symptoms with AI, proposes a vetted
fix, gates execution behind a risk/confidence policy, and re-investigates
after execution to confirm the issue is gone.`,
		SilenceUsage: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		cmd.NewRemediateCmd(),
		cmd.NewSessionsCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kubectl-remediate version %s\n", version)
		},
	}
}
