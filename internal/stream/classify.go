package stream

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/user/convo/internal/chat"
	"github.com/user/convo/internal/errors"
)

// OutcomeKind is the terminal classification of one stream cycle
type OutcomeKind int

const (
	// Complete — clean stop, the assistant message is final
	Complete OutcomeKind = iota
	// NeedsTools — the turn proposes tool calls that must be executed
	// and answered before the conversation can continue
	NeedsTools
	// Truncated — cut off by the max token limit; final, but flagged
	Truncated
	// Filtered — rejected by the provider's content policy; final, but flagged
	Filtered
	// Incomplete — the stream ended without a terminal choice
	Incomplete
)

func (k OutcomeKind) String() string {
	switch k {
	case Complete:
		return "complete"
	case NeedsTools:
		return "needs_tools"
	case Truncated:
		return "truncated"
	case Filtered:
		return "filtered"
	case Incomplete:
		return "incomplete"
	}
	return "unknown"
}

// Terminal reports whether the outcome ends the tool loop
func (k OutcomeKind) Terminal() bool {
	return k != NeedsTools
}

// ToolInvocation is one fully accumulated tool call ready for dispatch.
// Args is the parsed argument object; when the accumulated argument buffer
// was not valid JSON, Args is nil and ArgErr carries the per-call error —
// the call is still part of the turn and must still receive a tool result.
type ToolInvocation struct {
	Call   chat.ToolCall
	Args   map[string]interface{}
	ArgErr error
}

// Outcome is the result of classifying one completed stream cycle
type Outcome struct {
	Kind        OutcomeKind
	Message     chat.Message     // Frozen assistant turn
	Invocations []ToolInvocation // Populated when Kind == NeedsTools, in slot order
	SlotErrors  []error          // Dropped slots (never received a function name)
}

// Classify freezes the accumulated state into a terminal outcome once the
// transport reports the end of one stream cycle. Slots that never received
// a function name are dropped with a per-slot error rather than failing the
// turn, so accumulated text is always preserved.
func (a *Accumulator) Classify() Outcome {
	out := Outcome{
		Message: chat.Message{
			Role:             a.Role(),
			Content:          a.content.String(),
			ReasoningContent: a.reasoning.String(),
			Model:            a.model,
			Usage:            a.usage,
		},
	}

	calls, slotErrs := a.finalizeSlots()
	out.SlotErrors = slotErrs

	switch a.finishReason {
	case chat.FinishStop:
		out.Kind = Complete
	case chat.FinishLength:
		out.Kind = Truncated
	case chat.FinishContentFilter:
		out.Kind = Filtered
	case chat.FinishToolCalls:
		if len(calls) == 0 {
			// The model claimed tool calls but no usable slot survived.
			out.Kind = Complete
			break
		}
		out.Kind = NeedsTools
		for _, inv := range calls {
			out.Message.ToolCalls = append(out.Message.ToolCalls, inv.Call)
		}
		out.Invocations = calls
	default:
		// No terminal choice ever arrived.
		out.Kind = Incomplete
	}

	return out
}

// finalizeSlots converts accumulated slots into invocations in index order,
// parsing each argument buffer exactly once, now that the turn is complete.
func (a *Accumulator) finalizeSlots() ([]ToolInvocation, []error) {
	if len(a.slots) == 0 {
		return nil, nil
	}

	indexes := make([]int, 0, len(a.slots))
	for idx := range a.slots {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var invocations []ToolInvocation
	var slotErrs []error

	for _, idx := range indexes {
		slot := a.slots[idx]
		if slot.name == "" {
			slotErrs = append(slotErrs, errors.NewMalformedToolCallError(idx))
			continue
		}

		call := chat.ToolCall{
			ID:        slot.id,
			Index:     idx,
			Type:      "function",
			Name:      slot.name,
			Arguments: slot.args.String(),
		}

		inv := ToolInvocation{Call: call}
		if strings.TrimSpace(call.Arguments) == "" {
			// Zero-argument calls may stream no argument fragments at all.
			inv.Args = map[string]interface{}{}
		} else {
			var args map[string]interface{}
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				inv.ArgErr = errors.NewToolArgumentError(call.ID, call.Name, err)
			} else {
				inv.Args = args
			}
		}
		invocations = append(invocations, inv)
	}

	return invocations, slotErrs
}
