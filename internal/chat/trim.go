package chat

// TrimHistory trims a message history to fit within a token budget.
//
// The budget should already account for the system prompt, tool schemas and an
// output reserve; this function only manages the history itself. Messages are
// trimmed oldest-first in logical groups: an assistant message carrying tool
// calls and the tool-result messages answering it are kept or dropped as one
// unit, so trimming can never leave a tool result without its proposing call.
// The most recent group always survives.
func TrimHistory(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 || maxTokens <= 0 {
		return messages
	}

	groups := groupHistory(messages)

	total := 0
	for _, g := range groups {
		total += g.tokens
	}
	if total <= maxTokens {
		return messages
	}

	kept := total
	drop := 0
	for drop < len(groups)-1 && kept > maxTokens {
		kept -= groups[drop].tokens
		drop++
	}

	var trimmed []Message
	for _, g := range groups[drop:] {
		trimmed = append(trimmed, g.messages...)
	}
	return trimmed
}

// historyGroup is a unit of conversation that must stay or go as a whole.
type historyGroup struct {
	messages []Message
	tokens   int
}

func groupHistory(messages []Message) []historyGroup {
	var groups []historyGroup
	i := 0
	for i < len(messages) {
		msg := messages[i]

		if msg.Role == RoleAssistant && len(msg.ToolCalls) > 0 {
			g := historyGroup{messages: []Message{msg}, tokens: EstimateMessageTokens(msg)}
			i++
			for i < len(messages) && messages[i].Role == RoleTool {
				g.messages = append(g.messages, messages[i])
				g.tokens += EstimateMessageTokens(messages[i])
				i++
			}
			groups = append(groups, g)
			continue
		}

		groups = append(groups, historyGroup{
			messages: []Message{msg},
			tokens:   EstimateMessageTokens(msg),
		})
		i++
	}
	return groups
}
