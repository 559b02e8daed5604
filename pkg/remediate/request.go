package remediate

import (
	"fmt"

	"github.com/helmcode/kubectl-remediate/pkg/investigate"
	"github.com/helmcode/kubectl-remediate/pkg/model"
	"github.com/helmcode/kubectl-remediate/pkg/policy"
)

// Request is the engine entry point input. Issue is required unless
// ExecuteChoice and SessionID are both supplied to continue a prior
// session.
type Request struct {
	Issue               string          `json:"issue,omitempty"`
	Mode                model.Mode      `json:"mode,omitempty"`
	ConfidenceThreshold *float64        `json:"confidenceThreshold,omitempty"`
	MaxRiskLevel        model.RiskLevel `json:"maxRiskLevel,omitempty"`
	ExecuteChoice       int             `json:"executeChoice,omitempty"`
	SessionID           string          `json:"sessionId,omitempty"`
	ExecutedCommands    []string        `json:"executedCommands,omitempty"`
}

func (r *Request) threshold() float64 {
	if r.ConfidenceThreshold != nil {
		return *r.ConfidenceThreshold
	}
	return policy.DefaultConfidenceThreshold
}

func (r *Request) maxRisk() model.RiskLevel {
	if r.MaxRiskLevel != "" {
		return r.MaxRiskLevel
	}
	return policy.DefaultMaxRisk
}

func (r *Request) validate() error {
	if r.ExecuteChoice != 0 {
		if r.SessionID == "" {
			return fmt.Errorf("executeChoice requires sessionId")
		}
		if r.ExecuteChoice != ChoiceExecuteNow && r.ExecuteChoice != ChoiceExecuteViaAgent {
			return fmt.Errorf("invalid executeChoice %d (valid choices: %d, %d)", r.ExecuteChoice, ChoiceExecuteNow, ChoiceExecuteViaAgent)
		}
	} else if r.Issue == "" {
		return fmt.Errorf("issue is required to start a remediation")
	}
	switch r.Mode {
	case "", model.ModeManual, model.ModeAutomatic:
	default:
		return fmt.Errorf("invalid mode %q (want manual or automatic)", r.Mode)
	}
	if r.ConfidenceThreshold != nil && (*r.ConfidenceThreshold < 0 || *r.ConfidenceThreshold > 1) {
		return fmt.Errorf("confidenceThreshold %v is outside [0,1]", *r.ConfidenceThreshold)
	}
	if r.MaxRiskLevel != "" && !r.MaxRiskLevel.Valid() {
		return fmt.Errorf("invalid maxRiskLevel %q (want low, medium or high)", r.MaxRiskLevel)
	}
	return nil
}

// InvestigationSummary is the loop accounting reported to the caller.
type InvestigationSummary struct {
	Iterations   int                          `json:"iterations"`
	DataGathered int                          `json:"dataGathered"`
	ToolCalls    []investigate.ToolInvocation `json:"toolCalls,omitempty"`
}

// AnalysisSummary is the caller-facing slice of the validated
// analysis.
type AnalysisSummary struct {
	IssueStatus model.IssueStatus `json:"issueStatus"`
	RootCause   string            `json:"rootCause"`
	Confidence  float64           `json:"confidence"`
	Factors     []string          `json:"factors"`
}

// ValidationSummary reports the nested validation pass.
type ValidationSummary struct {
	SessionID string           `json:"sessionId"`
	Status    string           `json:"status"`
	Analysis  *AnalysisSummary `json:"analysis,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Response is the structured document returned for every terminal
// outcome, including partial and full failures.
type Response struct {
	Status           string                  `json:"status"`
	SessionID        string                  `json:"sessionId"`
	Message          string                  `json:"message,omitempty"`
	Guidance         string                  `json:"guidance,omitempty"`
	Investigation    *InvestigationSummary   `json:"investigation,omitempty"`
	Analysis         *AnalysisSummary        `json:"analysis,omitempty"`
	Remediation      *model.Remediation      `json:"remediation,omitempty"`
	ExecutionChoices []model.ExecutionChoice `json:"executionChoices,omitempty"`
	Executed         bool                    `json:"executed"`
	Results          []model.ExecutionResult `json:"results,omitempty"`
	FallbackReason   string                  `json:"fallbackReason,omitempty"`
	Validation       *ValidationSummary      `json:"validation,omitempty"`
}

func summarize(a *model.Analysis) *AnalysisSummary {
	if a == nil {
		return nil
	}
	return &AnalysisSummary{
		IssueStatus: a.IssueStatus,
		RootCause:   a.RootCause,
		Confidence:  a.Confidence,
		Factors:     a.Factors,
	}
}
