package stream

import (
	"testing"

	"github.com/user/convo/internal/chat"
)

func contentChunk(content, finishReason string) *Chunk {
	return &Chunk{
		ID: "c", Object: "chat.completion.chunk", Created: 1, Model: "test-model",
		Choices: []Choice{{Index: 0, Delta: Delta{Content: content}, FinishReason: finishReason}},
	}
}

func toolChunk(frags ...ToolCallFragment) *Chunk {
	return &Chunk{
		ID: "c", Object: "chat.completion.chunk", Created: 1, Model: "test-model",
		Choices: []Choice{{Index: 0, Delta: Delta{ToolCalls: frags}}},
	}
}

func TestAccumulatorContent(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(contentChunk("Hel", ""))
	acc.Fold(contentChunk("lo", ""))
	acc.Fold(contentChunk("", "stop"))

	if acc.Content() != "Hello" {
		t.Errorf("Expected 'Hello', got '%s'", acc.Content())
	}
	if acc.FinishReason() != "stop" {
		t.Errorf("Expected finish reason 'stop', got '%s'", acc.FinishReason())
	}
	if acc.Model() != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", acc.Model())
	}
}

func TestAccumulatorRoleDefaultsToAssistant(t *testing.T) {
	acc := NewAccumulator()
	if acc.Role() != chat.RoleAssistant {
		t.Errorf("Expected default role assistant, got '%s'", acc.Role())
	}

	acc.Fold(&Chunk{
		ID: "c", Object: "o", Created: 1, Model: "m",
		Choices: []Choice{{Index: 0, Delta: Delta{Role: "assistant"}}},
	})
	if acc.Role() != chat.RoleAssistant {
		t.Errorf("Expected role assistant, got '%s'", acc.Role())
	}
}

// Chunk boundaries must not be observable: the same text split differently
// accumulates to the same result.
func TestAccumulatorBoundaryInvariance(t *testing.T) {
	splits := [][]string{
		{"Good morning"},
		{"Good ", "morning"},
		{"G", "ood", " mor", "ning"},
	}

	for _, split := range splits {
		acc := NewAccumulator()
		for _, piece := range split {
			acc.Fold(contentChunk(piece, ""))
		}
		if acc.Content() != "Good morning" {
			t.Errorf("Split %v accumulated to '%s'", split, acc.Content())
		}
	}
}

func TestAccumulatorReasoning(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(&Chunk{
		ID: "c", Object: "o", Created: 1, Model: "m",
		Choices: []Choice{{Index: 0, Delta: Delta{ReasoningContent: "thinking "}}},
	})
	acc.Fold(&Chunk{
		ID: "c", Object: "o", Created: 1, Model: "m",
		Choices: []Choice{{Index: 0, Delta: Delta{ReasoningContent: "hard"}}},
	})

	if acc.Reasoning() != "thinking hard" {
		t.Errorf("Expected reasoning accumulated separately, got '%s'", acc.Reasoning())
	}
	if acc.Content() != "" {
		t.Errorf("Reasoning must not leak into content, got '%s'", acc.Content())
	}
}

func TestAccumulatorToolSlots(t *testing.T) {
	acc := NewAccumulator()
	// Opening fragment carries id and name; continuations carry only
	// index and argument slices.
	acc.Fold(toolChunk(ToolCallFragment{
		Index: 0, ID: "call_1", Type: "function",
		Function: FunctionFragment{Name: "read_file", Arguments: `{"pa`},
	}))
	acc.Fold(toolChunk(ToolCallFragment{
		Index:    0,
		Function: FunctionFragment{Arguments: `th":"a.txt"}`},
	}))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	if out.Kind != NeedsTools {
		t.Fatalf("Expected NeedsTools, got %v", out.Kind)
	}
	if len(out.Invocations) != 1 {
		t.Fatalf("Expected 1 invocation, got %d", len(out.Invocations))
	}
	inv := out.Invocations[0]
	if inv.Call.ID != "call_1" || inv.Call.Name != "read_file" {
		t.Errorf("Unexpected call: %+v", inv.Call)
	}
	if inv.Call.Arguments != `{"path":"a.txt"}` {
		t.Errorf("Expected concatenated arguments, got '%s'", inv.Call.Arguments)
	}
	if inv.ArgErr != nil {
		t.Errorf("Expected valid arguments, got error %v", inv.ArgErr)
	}
	if inv.Args["path"] != "a.txt" {
		t.Errorf("Expected parsed path 'a.txt', got %v", inv.Args["path"])
	}
}

func TestAccumulatorInterleavedToolSlots(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(toolChunk(ToolCallFragment{
		Index: 0, ID: "call_a", Function: FunctionFragment{Name: "alpha", Arguments: `{"x":`},
	}))
	acc.Fold(toolChunk(ToolCallFragment{
		Index: 1, ID: "call_b", Function: FunctionFragment{Name: "beta", Arguments: `{"y":`},
	}))
	// Fragments for different slots interleave; index routes each one.
	acc.Fold(toolChunk(ToolCallFragment{Index: 1, Function: FunctionFragment{Arguments: `2}`}}))
	acc.Fold(toolChunk(ToolCallFragment{Index: 0, Function: FunctionFragment{Arguments: `1}`}}))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	if len(out.Invocations) != 2 {
		t.Fatalf("Expected 2 invocations, got %d", len(out.Invocations))
	}
	// Invocations come back in slot-index order.
	if out.Invocations[0].Call.Name != "alpha" || out.Invocations[1].Call.Name != "beta" {
		t.Errorf("Expected slot order alpha, beta; got %s, %s",
			out.Invocations[0].Call.Name, out.Invocations[1].Call.Name)
	}
	if out.Invocations[0].Call.Arguments != `{"x":1}` {
		t.Errorf("Slot 0 arguments corrupted: '%s'", out.Invocations[0].Call.Arguments)
	}
	if out.Invocations[1].Call.Arguments != `{"y":2}` {
		t.Errorf("Slot 1 arguments corrupted: '%s'", out.Invocations[1].Call.Arguments)
	}
}

func TestAccumulatorIDSetOnce(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(toolChunk(ToolCallFragment{
		Index: 0, ID: "call_first", Function: FunctionFragment{Name: "tool"},
	}))
	// A later fragment repeating the slot must not overwrite id or name.
	acc.Fold(toolChunk(ToolCallFragment{
		Index: 0, ID: "call_second", Function: FunctionFragment{Name: "other"},
	}))
	acc.Fold(contentChunk("", "tool_calls"))

	out := acc.Classify()
	if out.Invocations[0].Call.ID != "call_first" {
		t.Errorf("Expected first id kept, got '%s'", out.Invocations[0].Call.ID)
	}
	if out.Invocations[0].Call.Name != "tool" {
		t.Errorf("Expected first name kept, got '%s'", out.Invocations[0].Call.Name)
	}
}

func TestAccumulatorIgnoresNonZeroChoiceIndex(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(&Chunk{
		ID: "c", Object: "o", Created: 1, Model: "m",
		Choices: []Choice{
			{Index: 0, Delta: Delta{Content: "keep"}},
			{Index: 1, Delta: Delta{Content: "drop"}},
		},
	})

	if acc.Content() != "keep" {
		t.Errorf("Expected only choice 0 folded, got '%s'", acc.Content())
	}
}

func TestAccumulatorUsageFromFinalChunk(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(contentChunk("hi", "stop"))
	if !acc.Usage().IsZero() {
		t.Errorf("Expected zero usage before usage chunk, got %+v", acc.Usage())
	}

	acc.Fold(&Chunk{
		ID: "c", Object: "o", Created: 1, Model: "m",
		Choices: []Choice{},
		Usage:   &chat.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})

	want := chat.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	if acc.Usage() != want {
		t.Errorf("Expected usage %+v, got %+v", want, acc.Usage())
	}
}
