package chat

// charsPerToken is a rough average of characters per token. Real tokenizers
// vary by model and language, but 4 chars/token is close enough for context
// budgeting, which only needs to err on the safe side.
const charsPerToken = 4

// perMessageOverhead covers role tokens and message framing.
const perMessageOverhead = 4

// EstimateTokens returns a rough token count for a string (rounded up).
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// EstimateMessageTokens returns the estimated token count for one message,
// including its tool calls and per-message framing overhead.
func EstimateMessageTokens(m Message) int {
	tokens := perMessageOverhead
	tokens += EstimateTokens(m.Content)
	tokens += EstimateTokens(m.ReasoningContent)
	for _, tc := range m.ToolCalls {
		tokens += EstimateTokens(tc.Name)
		tokens += EstimateTokens(tc.Arguments)
		tokens += perMessageOverhead
	}
	if m.ToolCallID != "" {
		tokens += EstimateTokens(m.ToolCallID) + 2
	}
	return tokens
}

// EstimateHistoryTokens returns the total estimated tokens for a message slice.
func EstimateHistoryTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}
