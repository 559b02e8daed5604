package model

import (
	"time"
)

// Mode controls whether proposed fixes may run unattended.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeAutomatic Mode = "automatic"
)

// Status is the lifecycle state of a remediation session.
// Transitions are monotonic: a session never returns to investigating
// once it has left that state.
type Status string

const (
	StatusInvestigating        Status = "investigating"
	StatusAnalysisComplete     Status = "analysis_complete"
	StatusFailed               Status = "failed"
	StatusExecutedSuccessfully Status = "executed_successfully"
	StatusExecutedWithErrors   Status = "executed_with_errors"
	StatusCancelled            Status = "cancelled"
)

// IssueStatus is the model's verdict on whether the reported symptom
// still exists.
type IssueStatus string

const (
	IssueActive      IssueStatus = "active"
	IssueResolved    IssueStatus = "resolved"
	IssueNonExistent IssueStatus = "non_existent"
)

// RiskLevel tags a remediation action or plan with its blast radius.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Ordinal returns the position of the risk level in the total order
// low < medium < high. Unknown values sort above high so they are
// never auto-approved.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// Valid reports whether r is one of the three known levels.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Session is one remediation attempt, persisted as a single JSON file.
type Session struct {
	ID               string            `json:"sessionId"`
	Issue            string            `json:"issue"`
	Mode             Mode              `json:"mode"`
	Status           Status            `json:"status"`
	FinalAnalysis    *Analysis         `json:"finalAnalysis,omitempty"`
	ExecutionResults []ExecutionResult `json:"executionResults,omitempty"`
	Created          time.Time         `json:"created"`
	Updated          time.Time         `json:"updated"`
}

// Analysis is the validated structured diagnosis extracted from the
// model's final investigation message. Immutable once accepted.
type Analysis struct {
	IssueStatus      IssueStatus `json:"issueStatus"`
	RootCause        string      `json:"rootCause"`
	Confidence       float64     `json:"confidence"`
	Factors          []string    `json:"factors"`
	Remediation      Remediation `json:"remediation"`
	ValidationIntent string      `json:"validationIntent,omitempty"`
}

// Remediation is the proposed fix plan.
type Remediation struct {
	Summary string              `json:"summary"`
	Actions []RemediationAction `json:"actions"`
	Risk    RiskLevel           `json:"risk"`
}

// RemediationAction is a single proposed step. Command is optional:
// some actions are advisory only.
type RemediationAction struct {
	Description string    `json:"description"`
	Command     string    `json:"command,omitempty"`
	Risk        RiskLevel `json:"risk"`
	Rationale   string    `json:"rationale"`
}

// Commands returns the non-empty command strings of the plan, in
// action order.
func (r Remediation) Commands() []string {
	var cmds []string
	for _, a := range r.Actions {
		if a.Command != "" {
			cmds = append(cmds, a.Command)
		}
	}
	return cmds
}

// ExecutionResult records the outcome of one attempted command.
type ExecutionResult struct {
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionChoice is presented when a human must approve execution.
// Derived from the session at response time, never persisted.
type ExecutionChoice struct {
	ID          int       `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Risk        RiskLevel `json:"risk,omitempty"`
}
