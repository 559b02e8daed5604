// Package policy decides whether a proposed remediation may run
// unattended. Decide is a pure function with no I/O so every input
// combination yields a deterministic, explainable verdict.
package policy

import (
	"fmt"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

const (
	// DefaultConfidenceThreshold is the minimum self-reported
	// confidence for unattended execution.
	DefaultConfidenceThreshold = 0.8
	// DefaultMaxRisk is the highest risk level executed unattended.
	DefaultMaxRisk = model.RiskLow

	// StatusAwaitingApproval is the verdict status when a human must
	// choose before anything runs.
	StatusAwaitingApproval = "awaiting_user_approval"
	// StatusSuccess is the verdict status when automatic execution is
	// skipped by policy. The skip is not a failure: the analysis
	// itself succeeded and is returned to the caller.
	StatusSuccess = "success"
	// StatusExecute is the verdict status when execution may proceed;
	// the orchestrator replaces it with the execution outcome.
	StatusExecute = "execute"
)

// Decision is the verdict for one (mode, confidence, risk) input.
type Decision struct {
	ShouldExecute  bool
	Reason         string
	FinalStatus    string
	FallbackReason string
}

// Decide maps mode, confidence and risk to an execution verdict. It
// never returns an error: unknown risk levels sort above high and are
// therefore never auto-approved.
func Decide(mode model.Mode, confidence float64, risk model.RiskLevel, confidenceThreshold float64, maxRisk model.RiskLevel) Decision {
	if mode != model.ModeAutomatic {
		return Decision{
			ShouldExecute: false,
			Reason:        "manual mode requires user approval before execution",
			FinalStatus:   StatusAwaitingApproval,
		}
	}

	if confidence < confidenceThreshold {
		return Decision{
			ShouldExecute: false,
			Reason:        "confidence below threshold for automatic execution",
			FinalStatus:   StatusSuccess,
			FallbackReason: fmt.Sprintf("confidence %.2f is below the %.2f threshold for automatic execution",
				confidence, confidenceThreshold),
		}
	}

	if risk.Ordinal() > maxRisk.Ordinal() {
		return Decision{
			ShouldExecute: false,
			Reason:        "risk exceeds the configured maximum for automatic execution",
			FinalStatus:   StatusSuccess,
			FallbackReason: fmt.Sprintf("remediation risk %q exceeds the maximum allowed risk %q for automatic execution",
				risk, maxRisk),
		}
	}

	return Decision{
		ShouldExecute: true,
		Reason:        fmt.Sprintf("confidence %.2f meets the threshold and risk %q is within bounds", confidence, risk),
		FinalStatus:   StatusExecute,
	}
}
