package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"k8s.io/client-go/util/homedir"

	"github.com/helmcode/kubectl-remediate/pkg/executor"
	"github.com/helmcode/kubectl-remediate/pkg/formatter"
	"github.com/helmcode/kubectl-remediate/pkg/investigate"
	"github.com/helmcode/kubectl-remediate/pkg/k8s"
	"github.com/helmcode/kubectl-remediate/pkg/llm"
	"github.com/helmcode/kubectl-remediate/pkg/model"
	"github.com/helmcode/kubectl-remediate/pkg/remediate"
	"github.com/helmcode/kubectl-remediate/pkg/session"
)

var (
	kubeconfig          string
	sessionDir          string
	mode                string
	confidenceThreshold float64
	maxRiskLevel        string
	continueSession     string
	executeChoice       int
	executedCommands    []string
	llmProvider         string
	llmModel            string
	outputFormat        string
	verbose             bool
)

func NewRemediateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remediate [ISSUE]",
		Short: "Investigate and fix cluster issues with AI assistance",
		Long: `Describe a cluster symptom in natural language. The AI investigates with
read-only diagnostic tools, proposes a fix, and, depending on mode and
policy, executes it and verifies the result.

Examples:
  # Investigate and wait for approval before executing
  kubectl remediate "pods in payments are CrashLooping"

  # Execute low-risk fixes unattended when confidence is high
  kubectl remediate "nginx deployment has no ready replicas" --mode automatic

  # Approve a previously proposed fix
  kubectl remediate --session 01J8ZQ3... --choice 1

  # Raise the bar for unattended execution
  kubectl remediate "node pressure" --mode automatic --confidence-threshold 0.95 --max-risk low`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRemediate,
	}

	if home := homedir.HomeDir(); home != "" {
		cmd.Flags().StringVar(&kubeconfig, "kubeconfig", filepath.Join(home, ".kube", "config"), "Path to kubeconfig file")
		cmd.Flags().StringVar(&sessionDir, "session-dir", filepath.Join(home, ".kube", "remediate", "sessions"), "Directory for session records")
	} else {
		cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig file")
		cmd.Flags().StringVar(&sessionDir, "session-dir", ".kubectl-remediate-sessions", "Directory for session records")
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "manual", "Execution mode (manual, automatic)")
	cmd.Flags().Float64Var(&confidenceThreshold, "confidence-threshold", 0.8, "Minimum confidence for automatic execution")
	cmd.Flags().StringVar(&maxRiskLevel, "max-risk", "low", "Maximum risk executed automatically (low, medium, high)")
	cmd.Flags().StringVar(&continueSession, "session", "", "Session ID of a remediation awaiting approval")
	cmd.Flags().IntVar(&executeChoice, "choice", 0, "Execution choice for a session awaiting approval (1=execute now, 2=via agent)")
	cmd.Flags().StringSliceVar(&executedCommands, "executed-command", nil, "Command the calling agent already executed (repeatable, with --choice 2)")
	cmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider override (claude, openai)")
	cmd.Flags().StringVar(&llmModel, "model", "", "LLM model override")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

func runRemediate(cmd *cobra.Command, args []string) error {
	configureLogging()

	req := remediate.Request{
		Mode:                model.Mode(mode),
		ConfidenceThreshold: &confidenceThreshold,
		MaxRiskLevel:        model.RiskLevel(maxRiskLevel),
		SessionID:           continueSession,
		ExecuteChoice:       executeChoice,
		ExecutedCommands:    executedCommands,
	}
	if len(args) == 1 {
		req.Issue = args[0]
	}
	if req.Issue == "" && req.ExecuteChoice == 0 {
		return fmt.Errorf("either describe an issue or continue a session with --session and --choice")
	}

	store, err := session.NewFileStore(sessionDir)
	if err != nil {
		return err
	}

	llmClient, err := llm.CreateFromEnv(llmProvider, llmModel)
	if err != nil {
		return err
	}

	printHeader(req)

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " Connecting to Kubernetes cluster..."
	s.Start()

	k8sClient, err := k8s.NewClient(kubeconfig)
	if err != nil {
		s.Stop()
		return fmt.Errorf("failed to connect to cluster: %w", err)
	}
	s.Stop()
	printSuccess("Connected to Kubernetes cluster")

	engine := remediate.NewEngine(store, investigate.NewDriver(llmClient, k8sClient), executor.New())

	s.Suffix = " Investigating with AI..."
	if req.ExecuteChoice != 0 {
		s.Suffix = " Executing approved remediation..."
	}
	s.Start()

	resp, err := engine.Remediate(cmd.Context(), req)
	if err != nil {
		s.Stop()
		return err
	}
	s.Stop()
	printSuccess("Remediation cycle complete")

	return formatter.DisplayResults(resp, outputFormat)
}

func configureLogging() {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func printHeader(req remediate.Request) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Println("🩺 Kubernetes AI Remediation")
	if req.Issue != "" {
		fmt.Printf("📝 Issue: %s\n", req.Issue)
	}
	if req.SessionID != "" {
		fmt.Printf("🔗 Session: %s (choice %d)\n", req.SessionID, req.ExecuteChoice)
	}
	fmt.Printf("⚙️  Mode: %s\n", req.Mode)
	fmt.Println()
}

func printSuccess(msg string) {
	green := color.New(color.FgGreen)
	green.Printf("✓ %s\n", msg)
}
