package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/kubectl-remediate/pkg/model"
	"github.com/helmcode/kubectl-remediate/pkg/remediate"
)

// DisplayResults formats and displays the remediation response.
func DisplayResults(resp *remediate.Response, format string) error {
	switch format {
	case "json":
		return displayJSON(resp)
	case "yaml":
		return displayYAML(resp)
	case "human":
		fallthrough
	default:
		displayHuman(resp)
	}
	return nil
}

func displayJSON(resp *remediate.Response) error {
	output, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func displayYAML(resp *remediate.Response) error {
	output, err := yaml.Marshal(resp)
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func displayHuman(resp *remediate.Response) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Println()
	statusColor(resp.Status).Printf("📋 STATUS: %s\n", strings.ToUpper(resp.Status))
	fmt.Printf("   Session: %s\n\n", resp.SessionID)

	if resp.Analysis != nil {
		red.Println("💡 ROOT CAUSE:")
		fmt.Printf("   %s\n", resp.Analysis.RootCause)
		fmt.Printf("   Issue status: %s, confidence: %.0f%%\n\n", resp.Analysis.IssueStatus, resp.Analysis.Confidence*100)

		if len(resp.Analysis.Factors) > 0 {
			yellow.Println("🔎 EVIDENCE:")
			for i, factor := range resp.Analysis.Factors {
				fmt.Printf("   %d. %s\n", i+1, factor)
			}
			fmt.Println()
		}
	}

	if resp.Investigation != nil {
		fmt.Printf("   Investigation: %d iterations, %d diagnostic calls\n\n",
			resp.Investigation.Iterations, resp.Investigation.DataGathered)
	}

	if resp.Remediation != nil && len(resp.Remediation.Actions) > 0 {
		cyan.Println("🛠  PROPOSED REMEDIATION:")
		fmt.Printf("   %s (risk: %s)\n", resp.Remediation.Summary, resp.Remediation.Risk)
		for i, action := range resp.Remediation.Actions {
			fmt.Printf("   %d. %s %s\n", i+1, riskIcon(action.Risk), action.Description)
			if action.Command != "" {
				fmt.Printf("      Command: %s\n", color.CyanString(action.Command))
			}
			fmt.Printf("      Why: %s\n", action.Rationale)
		}
		fmt.Println()
	}

	if len(resp.ExecutionChoices) > 0 {
		yellow.Println("⏸  APPROVAL REQUIRED:")
		for _, choice := range resp.ExecutionChoices {
			fmt.Printf("   [%d] %s - %s\n", choice.ID, choice.Label, choice.Description)
		}
		fmt.Println()
	}

	if resp.Executed {
		green.Println("⚙️  EXECUTION RESULTS:")
		for i, result := range resp.Results {
			icon := "✓"
			if !result.Success {
				icon = "✗"
			}
			fmt.Printf("   %d. %s %s\n", i+1, icon, result.Action)
			if result.Output != "" {
				fmt.Printf("      %s\n", firstLine(result.Output))
			}
			if result.Error != "" {
				fmt.Printf("      Error: %s\n", color.RedString(result.Error))
			}
		}
		fmt.Println()
	}

	if resp.FallbackReason != "" {
		yellow.Printf("⚠️  NOT EXECUTED: %s\n\n", resp.FallbackReason)
	}

	if resp.Validation != nil {
		cyan.Println("🔁 VALIDATION PASS:")
		fmt.Printf("   Session %s: %s\n", resp.Validation.SessionID, resp.Validation.Status)
		if resp.Validation.Analysis != nil {
			fmt.Printf("   Verdict: %s - %s\n", resp.Validation.Analysis.IssueStatus, resp.Validation.Analysis.RootCause)
		}
		if resp.Validation.Message != "" {
			fmt.Printf("   %s\n", resp.Validation.Message)
		}
		fmt.Println()
	}

	if resp.Message != "" {
		fmt.Printf("   %s\n", resp.Message)
	}
	if resp.Guidance != "" {
		fmt.Printf("💡 %s\n", color.HiBlackString(resp.Guidance))
	}
	fmt.Println(strings.Repeat("─", 80))
}

func statusColor(status string) *color.Color {
	switch status {
	case string(model.StatusExecutedSuccessfully), "success":
		return color.New(color.FgGreen, color.Bold)
	case string(model.StatusExecutedWithErrors), string(model.StatusFailed):
		return color.New(color.FgRed, color.Bold)
	case "awaiting_user_approval", "awaiting_agent_execution":
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgWhite, color.Bold)
	}
}

func riskIcon(risk model.RiskLevel) string {
	switch risk {
	case model.RiskHigh:
		return "🔴"
	case model.RiskMedium:
		return "🟡"
	case model.RiskLow:
		return "🟢"
	default:
		return "⚪"
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
