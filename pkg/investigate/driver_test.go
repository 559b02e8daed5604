package investigate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/kubectl-remediate/pkg/llm"
)

// scriptedLLM replays a fixed sequence of completions and records the
// conversation it was shown.
type scriptedLLM struct {
	turns []llm.Completion
	calls int
	seen  [][]llm.Message
	err   error
}

func (s *scriptedLLM) Chat(_ context.Context, _ string, messages []llm.Message, _ []llm.Tool) (*llm.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := make([]llm.Message, len(messages))
	copy(cp, messages)
	s.seen = append(s.seen, cp)

	if s.calls >= len(s.turns) {
		return &llm.Completion{Text: "fallback terminal"}, nil
	}
	turn := s.turns[s.calls]
	s.calls++
	return &turn, nil
}

// mapExecutor serves tool calls from a map; missing tools error.
type mapExecutor struct {
	outputs map[string]string
	calls   []string
}

func (m *mapExecutor) Execute(_ context.Context, name string, _ map[string]interface{}) (string, error) {
	m.calls = append(m.calls, name)
	if out, ok := m.outputs[name]; ok {
		return out, nil
	}
	return "", fmt.Errorf("tool %s exploded", name)
}

func TestDriverRunsToolsThenTerminates(t *testing.T) {
	model := &scriptedLLM{turns: []llm.Completion{
		{ToolCalls: []llm.ToolCall{
			{ID: "t1", Name: "list_pods", Args: map[string]interface{}{"namespace": "default"}},
			{ID: "t2", Name: "list_events", Args: map[string]interface{}{"namespace": "default"}},
		}},
		{Text: `{"verdict": "done"}`},
	}}
	tools := &mapExecutor{outputs: map[string]string{
		"list_pods":   "pod-a CrashLoopBackOff",
		"list_events": "BackOff restarting failed container",
	}}

	d := NewDriver(model, tools)
	result, err := d.Run(context.Background(), "pods crashing")
	require.NoError(t, err)

	assert.Equal(t, `{"verdict": "done"}`, result.FinalMessage)
	assert.Equal(t, 2, result.Iterations)
	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "list_pods", result.ToolCalls[0].Tool)
	assert.Equal(t, "list_events", result.ToolCalls[1].Tool)
	assert.Equal(t, []string{"list_pods", "list_events"}, tools.calls)

	// Second turn must see the tool results appended to the
	// conversation.
	require.Len(t, model.seen, 2)
	last := model.seen[1][len(model.seen[1])-1]
	require.Len(t, last.ToolResults, 2)
	assert.Equal(t, "pod-a CrashLoopBackOff", last.ToolResults[0].Content)
	assert.False(t, last.ToolResults[0].IsError)
}

func TestDriverToolFailureIsEvidenceNotFatal(t *testing.T) {
	model := &scriptedLLM{turns: []llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "t1", Name: "pod_logs"}}},
		{Text: "final answer"},
	}}
	tools := &mapExecutor{} // every tool errors

	d := NewDriver(model, tools)
	result, err := d.Run(context.Background(), "issue")
	require.NoError(t, err, "a failing tool call must not abort the loop")
	assert.Equal(t, "final answer", result.FinalMessage)

	last := model.seen[1][len(model.seen[1])-1]
	require.Len(t, last.ToolResults, 1)
	assert.True(t, last.ToolResults[0].IsError)
	assert.Contains(t, last.ToolResults[0].Content, "exploded")
}

func TestDriverCeilingYieldsLastText(t *testing.T) {
	// Every turn requests a tool and narrates; the loop must stop at
	// the ceiling and return the last narration as final.
	turns := make([]llm.Completion, MaxIterations+5)
	for i := range turns {
		turns[i] = llm.Completion{
			Text:      fmt.Sprintf("thinking %d", i),
			ToolCalls: []llm.ToolCall{{ID: fmt.Sprintf("t%d", i), Name: "list_pods"}},
		}
	}
	model := &scriptedLLM{turns: turns}
	tools := &mapExecutor{outputs: map[string]string{"list_pods": "ok"}}

	d := NewDriver(model, tools)
	result, err := d.Run(context.Background(), "issue")
	require.NoError(t, err)
	assert.Equal(t, MaxIterations, result.Iterations)
	assert.Equal(t, fmt.Sprintf("thinking %d", MaxIterations-1), result.FinalMessage)
}

func TestDriverCeilingWithNoTextErrors(t *testing.T) {
	turns := make([]llm.Completion, MaxIterations)
	for i := range turns {
		turns[i] = llm.Completion{ToolCalls: []llm.ToolCall{{ID: fmt.Sprintf("t%d", i), Name: "list_pods"}}}
	}
	model := &scriptedLLM{turns: turns}
	tools := &mapExecutor{outputs: map[string]string{"list_pods": "ok"}}

	d := NewDriver(model, tools)
	_, err := d.Run(context.Background(), "issue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a final answer")
}

func TestDriverAIServiceErrorAborts(t *testing.T) {
	model := &scriptedLLM{err: fmt.Errorf("%w: connection refused", llm.ErrUnavailable)}

	d := NewDriver(model, &mapExecutor{})
	_, err := d.Run(context.Background(), "issue")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestCatalogIsReadOnly(t *testing.T) {
	for _, tool := range Catalog() {
		assert.NotContains(t, tool.Name, "delete")
		assert.NotContains(t, tool.Name, "apply")
		assert.NotContains(t, tool.Name, "patch")
		require.Equal(t, "object", tool.InputSchema["type"])
	}
}
