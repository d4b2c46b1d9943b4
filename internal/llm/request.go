package llm

import (
	"encoding/json"
	"fmt"

	"github.com/user/convo/internal/chat"
)

// Options is the immutable-after-build configuration for one outbound
// request. Built once per round from character defaults and the resolved
// API key, overridable per call.
type Options struct {
	Model            string
	Temperature      float64
	TopP             float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
	Tools            []chat.ToolDefinition
	// Extra carries provider-specific fields through to the payload
	// verbatim, without interpretation. Core fields always win on conflict.
	Extra map[string]interface{}
}

// wireMessage is one history entry as sent on the wire
type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// wireToolCall is a proposed call on an assistant message
type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type wireRequest struct {
	Model            string            `json:"model"`
	Messages         []wireMessage     `json:"messages"`
	Temperature      float64           `json:"temperature"`
	TopP             float64           `json:"top_p"`
	MaxTokens        int               `json:"max_tokens"`
	PresencePenalty  float64           `json:"presence_penalty"`
	FrequencyPenalty float64           `json:"frequency_penalty"`
	Stream           bool              `json:"stream"`
	StreamOptions    wireStreamOptions `json:"stream_options"`
	Tools            []wireTool        `json:"tools,omitempty"`
}

type wireStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// BuildRequestBody assembles the outbound request payload: system prompt
// first if present, then the full history in order, newest last. Numeric
// sampling fields round-trip exactly as configured. Extra fields are merged
// in verbatim; core fields take precedence over extras on key conflicts.
func BuildRequestBody(opts Options, systemPrompt string, history []chat.Message) ([]byte, error) {
	messages := make([]wireMessage, 0, len(history)+1)

	if systemPrompt != "" {
		messages = append(messages, wireMessage{Role: chat.RoleSystem, Content: systemPrompt})
	}

	for _, m := range history {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		messages = append(messages, wm)
	}

	req := wireRequest{
		Model:            opts.Model,
		Messages:         messages,
		Temperature:      opts.Temperature,
		TopP:             opts.TopP,
		MaxTokens:        opts.MaxTokens,
		PresencePenalty:  opts.PresencePenalty,
		FrequencyPenalty: opts.FrequencyPenalty,
		Stream:           true,
		StreamOptions:    wireStreamOptions{IncludeUsage: true},
	}

	for _, t := range opts.Tools {
		req.Tools = append(req.Tools, wireTool{
			Type: "function",
			Function: wireToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	if len(opts.Extra) == 0 {
		return json.Marshal(req)
	}

	// Merge pass-through fields under the typed payload.
	core, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(core, &payload); err != nil {
		return nil, err
	}
	for key, value := range opts.Extra {
		if _, taken := payload[key]; taken {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding extra field %q: %w", key, err)
		}
		payload[key] = raw
	}
	return json.Marshal(payload)
}
