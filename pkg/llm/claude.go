package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

type Claude struct {
	apiKey string
	client *http.Client
	model  string
}

func NewClaude(apiKey string) *Claude {
	return NewClaudeWithModel(apiKey, "claude-sonnet-4-20250514")
}

func NewClaudeWithModel(apiKey, model string) *Claude {
	return &Claude{
		apiKey: apiKey,
		client: &http.Client{Timeout: 120 * time.Second},
		model:  model,
	}
}

// Anthropic messages API content blocks.
type claudeContent struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	ToolUseID string                 `json:"tool_use_id,omitempty"`
	Content   string                 `json:"content,omitempty"`
	IsError   bool                   `json:"is_error,omitempty"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

func (c *Claude) Chat(ctx context.Context, system string, messages []Message, tools []Tool) (*Completion, error) {
	body := map[string]interface{}{
		"model":       c.model,
		"max_tokens":  4000,
		"temperature": 0,
		"messages":    toClaudeMessages(messages),
	}
	if system != "" {
		body["system"] = system
	}
	if len(tools) > 0 {
		ct := make([]claudeTool, 0, len(tools))
		for _, t := range tools {
			ct = append(ct, claudeTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		body["tools"] = ct
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, unavailable("Claude request failed: %v", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable("read Claude response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("Claude API error (status %d): %s", resp.StatusCode, string(respBytes))
	}

	var claudeResp struct {
		Content []claudeContent `json:"content"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &claudeResp); err != nil {
		return nil, unavailable("decode Claude response: %v", err)
	}
	if claudeResp.Error.Message != "" {
		return nil, unavailable("Claude API error: %s", claudeResp.Error.Message)
	}
	if len(claudeResp.Content) == 0 {
		return nil, unavailable("empty response from Claude")
	}

	out := &Completion{}
	for _, block := range claudeResp.Content {
		switch block.Type {
		case "text":
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: block.ID, Name: block.Name, Args: block.Input})
		}
	}
	return out, nil
}

func toClaudeMessages(messages []Message) []claudeMessage {
	out := make([]claudeMessage, 0, len(messages))
	for _, m := range messages {
		var content []claudeContent
		if m.Text != "" {
			content = append(content, claudeContent{Type: "text", Text: m.Text})
		}
		for _, tc := range m.ToolCalls {
			content = append(content, claudeContent{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: tc.Args})
		}
		for _, tr := range m.ToolResults {
			content = append(content, claudeContent{Type: "tool_result", ToolUseID: tr.CallID, Content: tr.Content, IsError: tr.IsError})
		}
		out = append(out, claudeMessage{Role: m.Role, Content: content})
	}
	return out
}
