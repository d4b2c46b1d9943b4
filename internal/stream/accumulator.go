package stream

import (
	"strings"

	"github.com/user/convo/internal/chat"
)

// toolSlot is the accumulation unit for one in-progress tool call, keyed by
// its stream-assigned index.
type toolSlot struct {
	id   string
	name string
	args strings.Builder
}

// Accumulator folds a sequence of chunks into one coherent in-progress
// assistant turn. It is scoped to a single turn and must be fed choices in
// strict arrival order; it is not safe for concurrent folds.
type Accumulator struct {
	content      strings.Builder
	reasoning    strings.Builder
	role         string
	finishReason string
	model        string
	usage        chat.Usage
	slots        map[int]*toolSlot
}

// NewAccumulator creates an empty accumulator for one assistant turn
func NewAccumulator() *Accumulator {
	return &Accumulator{
		slots: make(map[int]*toolSlot),
	}
}

// Fold applies one chunk to the accumulated state. Only the first choice is
// consumed; this system requests a single completion candidate.
func (a *Accumulator) Fold(chunk *Chunk) {
	if chunk.Model != "" && a.model == "" {
		a.model = chunk.Model
	}
	if chunk.Usage != nil {
		a.usage = *chunk.Usage
	}
	for i := range chunk.Choices {
		if chunk.Choices[i].Index != 0 {
			continue
		}
		a.foldChoice(&chunk.Choices[i])
	}
}

func (a *Accumulator) foldChoice(c *Choice) {
	d := &c.Delta

	if d.Role != "" && a.role == "" {
		a.role = d.Role
	}
	if d.Content != "" {
		a.content.WriteString(d.Content)
	}
	if d.ReasoningContent != "" {
		a.reasoning.WriteString(d.ReasoningContent)
	}

	for _, frag := range d.ToolCalls {
		slot, ok := a.slots[frag.Index]
		if !ok {
			slot = &toolSlot{}
			a.slots[frag.Index] = slot
		}
		// ID and name open the slot; continuation fragments omit them.
		if frag.ID != "" && slot.id == "" {
			slot.id = frag.ID
		}
		if frag.Function.Name != "" && slot.name == "" {
			slot.name = frag.Function.Name
		}
		if frag.Function.Arguments != "" {
			slot.args.WriteString(frag.Function.Arguments)
		}
	}

	// Only the terminal choice carries a finish reason.
	if c.FinishReason != "" {
		a.finishReason = c.FinishReason
	}
}

// Role returns the accumulated role, defaulting to assistant
func (a *Accumulator) Role() string {
	if a.role == "" {
		return chat.RoleAssistant
	}
	return a.role
}

// Content returns the text accumulated so far
func (a *Accumulator) Content() string {
	return a.content.String()
}

// Reasoning returns the reasoning trace accumulated so far
func (a *Accumulator) Reasoning() string {
	return a.reasoning.String()
}

// Model returns the model id reported by the stream
func (a *Accumulator) Model() string {
	return a.model
}

// Usage returns the usage reported by the stream's final usage chunk,
// zero until that chunk arrives.
func (a *Accumulator) Usage() chat.Usage {
	return a.usage
}

// FinishReason returns the recorded finish reason, empty while streaming
func (a *Accumulator) FinishReason() string {
	return a.finishReason
}

// HasToolSlots reports whether any tool-call slot has been opened
func (a *Accumulator) HasToolSlots() bool {
	return len(a.slots) > 0
}
