package chat

// Message roles as they appear on the wire
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reasons reported by the API on the terminal choice of a stream
const (
	FinishStop          = "stop"
	FinishToolCalls     = "tool_calls"
	FinishLength        = "length"
	FinishContentFilter = "content_filter"
)

// Message represents one turn of a conversation
type Message struct {
	Role             string     `json:"role"`
	Content          string     `json:"content"`
	ReasoningContent string     `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`   // Assistant turns that propose calls
	ToolCallID       string     `json:"tool_call_id,omitempty"` // Tool-role replies only
	Model            string     `json:"model,omitempty"`
	Usage            Usage      `json:"usage,omitzero"`
}

// ToolCall is a fully accumulated tool call on a completed assistant turn.
// Arguments holds the raw JSON argument object as sent by the model; it is
// only parsed once the turn is complete, since partial fragments are not
// valid JSON on their own.
type ToolCall struct {
	ID        string `json:"id"`
	Index     int    `json:"index"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage tracks token consumption for one turn
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usage records
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// IsZero reports whether no usage has been recorded
func (u Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// ToolDefinition describes a callable tool advertised to the model
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}
