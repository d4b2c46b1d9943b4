package stream

import (
	"errors"
	"testing"

	apperrors "github.com/user/convo/internal/errors"
)

func TestClassifyFinishReasons(t *testing.T) {
	tests := []struct {
		finishReason string
		want         OutcomeKind
		terminal     bool
	}{
		{"stop", Complete, true},
		{"length", Truncated, true},
		{"content_filter", Filtered, true},
		{"", Incomplete, true},
	}

	for _, tt := range tests {
		t.Run("finish_"+tt.finishReason, func(t *testing.T) {
			acc := NewAccumulator()
			acc.Fold(contentChunk("text", tt.finishReason))

			out := acc.Classify()
			if out.Kind != tt.want {
				t.Errorf("finish_reason %q: expected %v, got %v", tt.finishReason, tt.want, out.Kind)
			}
			if out.Kind.Terminal() != tt.terminal {
				t.Errorf("finish_reason %q: Terminal() = %v, want %v", tt.finishReason, out.Kind.Terminal(), tt.terminal)
			}
			if out.Message.Content != "text" {
				t.Errorf("Accumulated content must survive classification, got '%s'", out.Message.Content)
			}
		})
	}
}

func TestClassifyNeedsToolsNotTerminal(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(toolChunk(ToolCallFragment{
		Index: 0, ID: "call_1", Function: FunctionFragment{Name: "clock", Arguments: "{}"},
	}))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	if out.Kind != NeedsTools {
		t.Fatalf("Expected NeedsTools, got %v", out.Kind)
	}
	if out.Kind.Terminal() {
		t.Error("NeedsTools must not be terminal")
	}
	if len(out.Message.ToolCalls) != 1 {
		t.Errorf("Expected tool calls on the frozen message, got %d", len(out.Message.ToolCalls))
	}
}

func TestClassifyEmptyArgumentsBecomeEmptyMap(t *testing.T) {
	// Zero-argument tools can stream no argument fragments at all.
	acc := NewAccumulator()
	acc.Fold(toolChunk(ToolCallFragment{
		Index: 0, ID: "call_1", Function: FunctionFragment{Name: "current_time"},
	}))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	inv := out.Invocations[0]
	if inv.ArgErr != nil {
		t.Fatalf("Empty argument buffer must not be an error, got %v", inv.ArgErr)
	}
	if inv.Args == nil || len(inv.Args) != 0 {
		t.Errorf("Expected empty argument map, got %v", inv.Args)
	}
}

func TestClassifyInvalidArgumentsKeepCall(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(toolChunk(
		ToolCallFragment{Index: 0, ID: "call_bad", Function: FunctionFragment{Name: "broken", Arguments: `{invalid`}},
		ToolCallFragment{Index: 1, ID: "call_ok", Function: FunctionFragment{Name: "fine", Arguments: `{"a":1}`}},
	))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	if out.Kind != NeedsTools {
		t.Fatalf("Expected NeedsTools, got %v", out.Kind)
	}
	if len(out.Invocations) != 2 {
		t.Fatalf("Expected both calls kept, got %d", len(out.Invocations))
	}

	bad := out.Invocations[0]
	var argErr *apperrors.ToolArgumentError
	if !errors.As(bad.ArgErr, &argErr) {
		t.Fatalf("Expected ToolArgumentError, got %v", bad.ArgErr)
	}
	if argErr.ToolName != "broken" {
		t.Errorf("Expected tool name 'broken', got '%s'", argErr.ToolName)
	}
	if bad.Args != nil {
		t.Errorf("Expected nil args for invalid JSON, got %v", bad.Args)
	}

	ok := out.Invocations[1]
	if ok.ArgErr != nil {
		t.Errorf("Valid call must be unaffected by a sibling's bad arguments: %v", ok.ArgErr)
	}
	if ok.Args["a"] != float64(1) {
		t.Errorf("Expected parsed args, got %v", ok.Args)
	}
}

func TestClassifyNamelessSlotDropped(t *testing.T) {
	acc := NewAccumulator()
	// Slot 0 never receives a function name; slot 1 is complete.
	acc.Fold(toolChunk(
		ToolCallFragment{Index: 0, ID: "call_anon", Function: FunctionFragment{Arguments: `{"x":1}`}},
		ToolCallFragment{Index: 1, ID: "call_ok", Function: FunctionFragment{Name: "fine", Arguments: "{}"}},
	))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	if len(out.Invocations) != 1 {
		t.Fatalf("Expected nameless slot dropped, got %d invocations", len(out.Invocations))
	}
	if out.Invocations[0].Call.Name != "fine" {
		t.Errorf("Wrong surviving call: %+v", out.Invocations[0].Call)
	}
	if len(out.SlotErrors) != 1 {
		t.Fatalf("Expected 1 slot error, got %d", len(out.SlotErrors))
	}
	var slotErr *apperrors.MalformedToolCallError
	if !errors.As(out.SlotErrors[0], &slotErr) {
		t.Fatalf("Expected MalformedToolCallError, got %v", out.SlotErrors[0])
	}
	if slotErr.SlotIndex != 0 {
		t.Errorf("Expected slot index 0, got %d", slotErr.SlotIndex)
	}
}

func TestClassifyToolCallsWithNoUsableSlots(t *testing.T) {
	// finish_reason tool_calls but every slot is nameless: the turn
	// degrades to Complete rather than spinning the loop.
	acc := NewAccumulator()
	acc.Fold(toolChunk(ToolCallFragment{Index: 0, Function: FunctionFragment{Arguments: "{}"}}))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	if out.Kind != Complete {
		t.Errorf("Expected Complete when no usable slot survives, got %v", out.Kind)
	}
	if len(out.SlotErrors) != 1 {
		t.Errorf("Expected the dropped slot reported, got %d errors", len(out.SlotErrors))
	}
}

func TestClassifyPreservesPartialOnIncomplete(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(contentChunk("Good morn", ""))

	out := acc.Classify()
	if out.Kind != Incomplete {
		t.Fatalf("Expected Incomplete, got %v", out.Kind)
	}
	if out.Message.Content != "Good morn" {
		t.Errorf("Partial content must be preserved, got '%s'", out.Message.Content)
	}
}

func TestOutcomeKindString(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{Complete, "complete"},
		{NeedsTools, "needs_tools"},
		{Truncated, "truncated"},
		{Filtered, "filtered"},
		{Incomplete, "incomplete"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}
