// Package remediate composes the investigation, analysis, policy and
// execution phases into the top-level remediation state machine.
package remediate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/helmcode/kubectl-remediate/pkg/executor"
	"github.com/helmcode/kubectl-remediate/pkg/investigate"
	"github.com/helmcode/kubectl-remediate/pkg/model"
	"github.com/helmcode/kubectl-remediate/pkg/parser"
	"github.com/helmcode/kubectl-remediate/pkg/policy"
	"github.com/helmcode/kubectl-remediate/pkg/prompts"
	"github.com/helmcode/kubectl-remediate/pkg/session"
)

// Execution choices offered when a human must approve.
const (
	ChoiceExecuteNow      = 1
	ChoiceExecuteViaAgent = 2
)

// maxValidationDepth bounds the post-fix re-investigation to a single
// nested pass. The validation pass never triggers further validation.
const maxValidationDepth = 1

// Investigator runs the bounded evidence-gathering loop.
// *investigate.Driver is the production implementation.
type Investigator interface {
	Run(ctx context.Context, issue string) (*investigate.Result, error)
}

// Engine is the remediation orchestrator.
type Engine struct {
	store        session.Store
	investigator Investigator
	executor     *executor.Executor
}

func NewEngine(store session.Store, investigator Investigator, exec *executor.Executor) *Engine {
	return &Engine{store: store, investigator: investigator, executor: exec}
}

// Remediate is the engine entry point. Request validation errors are
// returned before any session mutation.
func (e *Engine) Remediate(ctx context.Context, req Request) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = model.ModeManual
	}

	if req.ExecuteChoice != 0 {
		return e.continueSession(ctx, req)
	}
	return e.run(ctx, req, 0)
}

// run executes one investigation cycle for a fresh issue. depth > 0
// marks the nested validation pass.
func (e *Engine) run(ctx context.Context, req Request, depth int) (*Response, error) {
	sess := session.NewSession(req.Issue, req.Mode)
	if err := e.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	log.Info().
		Str("session_id", sess.ID).
		Str("mode", string(req.Mode)).
		Int("depth", depth).
		Msg("Starting remediation investigation")

	result, err := e.investigator.Run(ctx, req.Issue)
	if err != nil {
		e.markFailed(ctx, sess.ID)
		return nil, fmt.Errorf("investigation failed: %w", err)
	}

	analysis, err := parser.ParseAnalysis(result.FinalMessage)
	if err != nil {
		e.markFailed(ctx, sess.ID)
		return nil, fmt.Errorf("investigation produced an invalid analysis: %w", err)
	}

	if _, err := e.store.Update(ctx, sess.ID, func(s *model.Session) {
		s.Status = model.StatusAnalysisComplete
		s.FinalAnalysis = analysis
	}); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	resp := &Response{
		SessionID: sess.ID,
		Investigation: &InvestigationSummary{
			Iterations:   result.Iterations,
			DataGathered: len(result.ToolCalls),
			ToolCalls:    result.ToolCalls,
		},
		Analysis:    summarize(analysis),
		Remediation: &analysis.Remediation,
	}

	// Nothing to execute when the issue is already gone.
	if analysis.IssueStatus == model.IssueResolved || analysis.IssueStatus == model.IssueNonExistent {
		resp.Status = policy.StatusSuccess
		resp.Message = fmt.Sprintf("issue is %s; no remediation necessary", analysis.IssueStatus)
		return resp, nil
	}

	effectiveRisk := policy.EffectiveRisk(analysis.Remediation)
	decision := policy.Decide(req.Mode, analysis.Confidence, effectiveRisk, req.threshold(), req.maxRisk())

	log.Info().
		Str("session_id", sess.ID).
		Bool("should_execute", decision.ShouldExecute).
		Str("reason", decision.Reason).
		Msg("Execution decision")

	if !decision.ShouldExecute {
		resp.Status = decision.FinalStatus
		resp.FallbackReason = decision.FallbackReason
		if decision.FinalStatus == policy.StatusAwaitingApproval {
			resp.ExecutionChoices = executionChoices(analysis, effectiveRisk)
			resp.Guidance = fmt.Sprintf(
				"Review the proposed remediation, then call again with sessionId=%s and executeChoice=1 to run it here, or executeChoice=2 to run it through your own agent.",
				sess.ID)
		} else {
			resp.Guidance = "Automatic execution was skipped by policy. Re-run in manual mode to approve the remediation yourself."
		}
		return resp, nil
	}

	return e.execute(ctx, sess.ID, req, analysis, resp, depth)
}

// continueSession resumes a session awaiting approval with a
// previously issued execution choice.
func (e *Engine) continueSession(ctx context.Context, req Request) (*Response, error) {
	sess, err := e.store.Read(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.StatusAnalysisComplete || sess.FinalAnalysis == nil {
		return nil, fmt.Errorf("session %s is %s; only sessions awaiting approval can be continued", sess.ID, sess.Status)
	}

	analysis := sess.FinalAnalysis
	resp := &Response{
		SessionID:   sess.ID,
		Analysis:    summarize(analysis),
		Remediation: &analysis.Remediation,
	}

	// Carry the original mode forward; thresholds come from the
	// continuation request.
	req.Issue = sess.Issue
	req.Mode = sess.Mode

	switch req.ExecuteChoice {
	case ChoiceExecuteNow:
		return e.execute(ctx, sess.ID, req, analysis, resp, 0)

	case ChoiceExecuteViaAgent:
		if len(req.ExecutedCommands) > 0 {
			// The calling agent already ran the commands; record them.
			now := time.Now().UTC()
			results := make([]model.ExecutionResult, 0, len(req.ExecutedCommands))
			for _, cmd := range req.ExecutedCommands {
				results = append(results, model.ExecutionResult{Action: cmd, Success: true, Timestamp: now})
			}
			if _, err := e.store.Update(ctx, sess.ID, func(s *model.Session) {
				s.Status = model.StatusExecutedSuccessfully
				s.ExecutionResults = results
			}); err != nil {
				return nil, fmt.Errorf("record agent execution: %w", err)
			}
			resp.Status = string(model.StatusExecutedSuccessfully)
			resp.Executed = true
			resp.Results = results
			resp.Message = fmt.Sprintf("recorded %d commands executed by the calling agent", len(results))
			return resp, nil
		}

		resp.Status = "awaiting_agent_execution"
		resp.Guidance = fmt.Sprintf(
			"Execute the remediation commands yourself, then call again with sessionId=%s, executeChoice=2 and executedCommands listing what you ran.",
			sess.ID)
		return resp, nil
	}

	return nil, fmt.Errorf("invalid executeChoice %d", req.ExecuteChoice)
}

// execute runs the approved plan and, on full success, the single
// nested validation pass.
func (e *Engine) execute(ctx context.Context, sessionID string, req Request, analysis *model.Analysis, resp *Response, depth int) (*Response, error) {
	commands := analysis.Remediation.Commands()
	if len(commands) == 0 {
		resp.Status = policy.StatusSuccess
		resp.Message = "remediation plan has no executable commands; apply the advisory steps manually"
		return resp, nil
	}

	batch := e.executor.ExecuteAll(ctx, commands)

	status := model.StatusExecutedWithErrors
	if batch.OverallSuccess {
		status = model.StatusExecutedSuccessfully
	}
	if _, err := e.store.Update(ctx, sessionID, func(s *model.Session) {
		s.Status = status
		s.ExecutionResults = batch.Results
	}); err != nil {
		return nil, fmt.Errorf("persist execution results: %w", err)
	}

	resp.Status = string(status)
	resp.Executed = true
	resp.Results = batch.Results
	if !batch.OverallSuccess {
		resp.Message = "some remediation commands failed; review the per-command results"
		return resp, nil
	}

	if analysis.ValidationIntent != "" && depth < maxValidationDepth {
		resp.Validation = e.validateFix(ctx, req, analysis, depth)
	}
	return resp, nil
}

// validateFix re-investigates with a validation-oriented issue in a
// fresh session. Validation failures never fail the outer result.
func (e *Engine) validateFix(ctx context.Context, req Request, analysis *model.Analysis, depth int) *ValidationSummary {
	validationReq := Request{
		Issue:               prompts.BuildValidationPrompt(analysis.ValidationIntent, req.Issue),
		Mode:                model.ModeAutomatic,
		ConfidenceThreshold: req.ConfidenceThreshold,
		MaxRiskLevel:        req.MaxRiskLevel,
	}

	inner, err := e.run(ctx, validationReq, depth+1)
	if err != nil {
		log.Warn().Err(err).Msg("Validation pass failed")
		return &ValidationSummary{
			Status:  string(model.StatusFailed),
			Message: fmt.Sprintf("validation investigation failed: %v", err),
		}
	}
	return &ValidationSummary{
		SessionID: inner.SessionID,
		Status:    inner.Status,
		Analysis:  inner.Analysis,
	}
}

func (e *Engine) markFailed(ctx context.Context, sessionID string) {
	if _, err := e.store.Update(ctx, sessionID, func(s *model.Session) {
		s.Status = model.StatusFailed
	}); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to mark session as failed")
	}
}

func executionChoices(analysis *model.Analysis, risk model.RiskLevel) []model.ExecutionChoice {
	return []model.ExecutionChoice{
		{
			ID:          ChoiceExecuteNow,
			Label:       "Execute now",
			Description: fmt.Sprintf("Run the %d proposed commands here, in order, continuing past failures", len(analysis.Remediation.Commands())),
			Risk:        risk,
		},
		{
			ID:          ChoiceExecuteViaAgent,
			Label:       "Execute via the calling agent",
			Description: "Return the commands so the calling agent can run them and report back",
			Risk:        risk,
		},
	}
}
