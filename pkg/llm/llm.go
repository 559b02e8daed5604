package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable wraps transport and API-level failures from a
// provider. Callers treat any error from Chat as fatal for the whole
// investigation.
var ErrUnavailable = errors.New("AI service unavailable")

// Role of a conversation message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Tool describes a callable tool offered to the model. InputSchema is
// a JSON-schema object.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]interface{}
}

// ToolResult is the outcome of a tool invocation, fed back into the
// conversation. IsError marks failures the model should reason about.
type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

// Message is one turn of a tool-calling conversation. Exactly one of
// the content fields is meaningful per role: user turns carry Text or
// ToolResults, assistant turns carry Text and/or ToolCalls.
type Message struct {
	Role        string
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// Completion is a single assistant turn returned by a provider.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// LLM is a provider-agnostic tool-calling chat client.
type LLM interface {
	// Chat sends the system prompt, conversation so far and tool
	// catalog, and returns the next assistant turn.
	Chat(ctx context.Context, system string, messages []Message, tools []Tool) (*Completion, error)
}

func unavailable(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
