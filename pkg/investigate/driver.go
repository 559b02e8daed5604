// Package investigate drives the bounded AI tool-calling loop that
// gathers read-only cluster evidence before a diagnosis is produced.
package investigate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/helmcode/kubectl-remediate/pkg/llm"
	"github.com/helmcode/kubectl-remediate/pkg/prompts"
)

// MaxIterations is the investigation iteration ceiling.
const MaxIterations = 20

// ToolExecutor runs a single diagnostic tool call. Tool errors are
// returned to the model as evidence, never surfaced as driver faults.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

// ToolInvocation records one executed tool call.
type ToolInvocation struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// Result is the raw outcome of an investigation: the model's final
// message plus loop accounting.
type Result struct {
	FinalMessage string
	Iterations   int
	ToolCalls    []ToolInvocation
}

// Driver runs a single model conversation that may request up to
// MaxIterations rounds of diagnostic tool calls before producing a
// final answer.
type Driver struct {
	llm      llm.LLM
	tools    ToolExecutor
	catalog  []llm.Tool
	maxIters int
}

func NewDriver(model llm.LLM, tools ToolExecutor) *Driver {
	return &Driver{
		llm:      model,
		tools:    tools,
		catalog:  Catalog(),
		maxIters: MaxIterations,
	}
}

// Run investigates the issue text. The loop ends when the model stops
// requesting tools or the iteration ceiling is hit; hitting the
// ceiling still yields whatever terminal text was last produced. An
// error is returned only when the AI service itself fails, or when
// the loop exhausts with no terminal text at all.
func (d *Driver) Run(ctx context.Context, issue string) (*Result, error) {
	messages := []llm.Message{
		{Role: llm.RoleUser, Text: prompts.BuildIssuePrompt(issue)},
	}

	result := &Result{}
	lastText := ""

	for result.Iterations < d.maxIters {
		result.Iterations++

		completion, err := d.llm.Chat(ctx, prompts.InvestigationSystemPrompt, messages, d.catalog)
		if err != nil {
			return nil, fmt.Errorf("investigation aborted at iteration %d: %w", result.Iterations, err)
		}

		if completion.Text != "" {
			lastText = completion.Text
		}

		if len(completion.ToolCalls) == 0 {
			// Terminal message: the model is done gathering evidence.
			result.FinalMessage = lastText
			if result.FinalMessage == "" {
				return nil, fmt.Errorf("investigation produced no final message")
			}
			log.Debug().Int("iterations", result.Iterations).
				Int("tool_calls", len(result.ToolCalls)).
				Msg("Investigation complete")
			return result, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Text:      completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		var results []llm.ToolResult
		for _, call := range completion.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, ToolInvocation{Tool: call.Name, Args: call.Args})

			output, err := d.tools.Execute(ctx, call.Name, call.Args)
			if err != nil {
				// Evidence, not a fault: the model reasons about it.
				log.Debug().Str("tool", call.Name).Err(err).Msg("Diagnostic tool call failed")
				results = append(results, llm.ToolResult{
					CallID:  call.ID,
					Content: err.Error(),
					IsError: true,
				})
				continue
			}
			results = append(results, llm.ToolResult{CallID: call.ID, Content: output})
		}
		messages = append(messages, llm.Message{Role: llm.RoleUser, ToolResults: results})
	}

	// Ceiling reached. Whatever terminal text exists is treated as
	// final rather than an error.
	if lastText == "" {
		return nil, fmt.Errorf("investigation exhausted %d iterations without a final answer", d.maxIters)
	}
	log.Warn().Int("iterations", result.Iterations).Msg("Investigation hit iteration ceiling")
	result.FinalMessage = lastText
	return result, nil
}
