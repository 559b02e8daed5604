package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type OpenAI struct {
	apiKey string
	client *http.Client
	model  string
}

func NewOpenAI(apiKey string) *OpenAI {
	return NewOpenAIWithModel(apiKey, "gpt-4o")
}

func NewOpenAIWithModel(apiKey, model string) *OpenAI {
	return &OpenAI{
		apiKey: apiKey,
		client: &http.Client{Timeout: 120 * time.Second},
		model:  model,
	}
}

// OpenAI chat-completions wire shapes. Tool calls carry their
// arguments as a JSON-encoded string rather than an object.
type openaiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

func (o *OpenAI) Chat(ctx context.Context, system string, messages []Message, tools []Tool) (*Completion, error) {
	msgs := []openaiMessage{}
	if system != "" {
		msgs = append(msgs, openaiMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, toOpenAIMessages(messages)...)

	body := map[string]interface{}{
		"model":       o.model,
		"messages":    msgs,
		"max_tokens":  4000,
		"temperature": 0,
	}
	if len(tools) > 0 {
		wireTools := make([]map[string]interface{}, 0, len(tools))
		for _, t := range tools {
			wireTools = append(wireTools, map[string]interface{}{
				"type": "function",
				"function": map[string]interface{}{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.InputSchema,
				},
			})
		}
		body["tools"] = wireTools
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, unavailable("OpenAI request failed: %v", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable("read OpenAI response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("OpenAI API error (status %d): %s", resp.StatusCode, string(respBytes))
	}

	var openaiResp struct {
		Choices []struct {
			Message openaiMessage `json:"message"`
		} `json:"choices"`
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &openaiResp); err != nil {
		return nil, unavailable("decode OpenAI response: %v", err)
	}
	if openaiResp.Error.Message != "" {
		return nil, unavailable("OpenAI API error: %s", openaiResp.Error.Message)
	}
	if len(openaiResp.Choices) == 0 {
		return nil, unavailable("empty response from OpenAI")
	}

	msg := openaiResp.Choices[0].Message
	out := &Completion{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, unavailable("decode tool call arguments for %s: %v", tc.Function.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args})
	}
	return out, nil
}

func toOpenAIMessages(messages []Message) []openaiMessage {
	var out []openaiMessage
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			am := openaiMessage{Role: "assistant", Content: m.Text}
			for _, tc := range m.ToolCalls {
				wire := openaiToolCall{ID: tc.ID, Type: "function"}
				wire.Function.Name = tc.Name
				argBytes, err := json.Marshal(tc.Args)
				if err != nil {
					argBytes = []byte("{}")
				}
				wire.Function.Arguments = string(argBytes)
				am.ToolCalls = append(am.ToolCalls, wire)
			}
			out = append(out, am)
		default:
			// Tool results become individual tool-role messages; plain
			// text stays a user message.
			if m.Text != "" {
				out = append(out, openaiMessage{Role: "user", Content: m.Text})
			}
			for _, tr := range m.ToolResults {
				content := tr.Content
				if tr.IsError {
					content = "ERROR: " + content
				}
				out = append(out, openaiMessage{Role: "tool", Content: content, ToolCallID: tr.CallID})
			}
		}
	}
	return out
}
