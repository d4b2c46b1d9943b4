package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/user/convo/internal/chat"
	apperrors "github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/llm"
	"github.com/user/convo/internal/stream"
	"github.com/user/convo/internal/tool"
)

// scriptedStreamer replays a fixed sequence of outcomes, one per round,
// recording the request body it received each time.
type scriptedStreamer struct {
	outcomes []stream.Outcome
	errs     []error
	calls    int
	bodies   [][]byte
}

func (s *scriptedStreamer) StreamChat(ctx context.Context, body []byte, observe llm.DeltaObserver) (stream.Outcome, error) {
	s.bodies = append(s.bodies, body)
	i := s.calls
	s.calls++
	if i >= len(s.outcomes) {
		return stream.Outcome{Kind: stream.Complete}, nil
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	out := s.outcomes[i]
	if observe != nil && out.Message.Content != "" {
		observe(stream.Delta{Content: out.Message.Content})
	}
	return out, err
}

// scriptedRunner answers every invocation with a canned content string.
type scriptedRunner struct {
	content string
	calls   [][]stream.ToolInvocation
}

func (r *scriptedRunner) Run(ctx context.Context, invocations []stream.ToolInvocation) []tool.Result {
	r.calls = append(r.calls, invocations)
	results := make([]tool.Result, len(invocations))
	for i, inv := range invocations {
		results[i] = tool.Result{
			CallID:   inv.Call.ID,
			ToolName: inv.Call.Name,
			Content:  r.content,
		}
	}
	return results
}

func completeOutcome(content string) stream.Outcome {
	return stream.Outcome{
		Kind:    stream.Complete,
		Message: chat.Message{Role: chat.RoleAssistant, Content: content},
	}
}

func toolsOutcome(calls ...chat.ToolCall) stream.Outcome {
	out := stream.Outcome{
		Kind:    stream.NeedsTools,
		Message: chat.Message{Role: chat.RoleAssistant, ToolCalls: calls},
	}
	for _, c := range calls {
		out.Invocations = append(out.Invocations, stream.ToolInvocation{
			Call: c,
			Args: map[string]interface{}{},
		})
	}
	return out
}

func collectPersisted() (func(chat.Message) error, *[]chat.Message) {
	var persisted []chat.Message
	return func(m chat.Message) error {
		persisted = append(persisted, m)
		return nil
	}, &persisted
}

func TestLoopSingleCompleteRound(t *testing.T) {
	streamer := &scriptedStreamer{outcomes: []stream.Outcome{completeOutcome("done")}}
	persist, persisted := collectPersisted()

	loop := NewLoop(streamer, &scriptedRunner{}, 5, nil)
	result, err := loop.Run(context.Background(), RoundConfig{}, nil, nil, persist)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Outcome != stream.Complete {
		t.Errorf("Expected Complete, got %v", result.Outcome)
	}
	if result.Rounds != 1 {
		t.Errorf("Expected 1 round, got %d", result.Rounds)
	}
	if result.Final.Content != "done" {
		t.Errorf("Expected final content 'done', got '%s'", result.Final.Content)
	}
	if len(*persisted) != 1 {
		t.Errorf("Expected 1 persisted message, got %d", len(*persisted))
	}
}

func TestLoopToolRoundTripOrdering(t *testing.T) {
	callA := chat.ToolCall{ID: "call_a", Type: "function", Name: "alpha", Arguments: "{}"}
	callB := chat.ToolCall{ID: "call_b", Type: "function", Name: "beta", Arguments: "{}"}
	streamer := &scriptedStreamer{outcomes: []stream.Outcome{
		toolsOutcome(callA, callB),
		completeOutcome("final answer"),
	}}
	runner := &scriptedRunner{content: `{"ok":true}`}
	persist, persisted := collectPersisted()

	loop := NewLoop(streamer, runner, 5, nil)
	result, err := loop.Run(context.Background(), RoundConfig{},
		[]chat.Message{{Role: chat.RoleUser, Content: "go"}}, nil, persist)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Rounds != 2 {
		t.Errorf("Expected 2 rounds, got %d", result.Rounds)
	}

	// Persist order: assistant tool-call turn, its two tool results in
	// call order, then the final assistant turn.
	msgs := *persisted
	if len(msgs) != 4 {
		t.Fatalf("Expected 4 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleAssistant || len(msgs[0].ToolCalls) != 2 {
		t.Errorf("Message 0 should be the tool-call turn, got %+v", msgs[0])
	}
	if msgs[1].Role != chat.RoleTool || msgs[1].ToolCallID != "call_a" {
		t.Errorf("Message 1 should answer call_a, got %+v", msgs[1])
	}
	if msgs[2].Role != chat.RoleTool || msgs[2].ToolCallID != "call_b" {
		t.Errorf("Message 2 should answer call_b, got %+v", msgs[2])
	}
	if msgs[3].Role != chat.RoleAssistant || msgs[3].Content != "final answer" {
		t.Errorf("Message 3 should be the final turn, got %+v", msgs[3])
	}

	// The second round's request must include the tool results.
	var secondReq struct {
		Messages []struct {
			Role       string `json:"role"`
			ToolCallID string `json:"tool_call_id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(streamer.bodies[1], &secondReq); err != nil {
		t.Fatalf("Second request body invalid: %v", err)
	}
	// user, assistant, tool, tool
	if len(secondReq.Messages) != 4 {
		t.Fatalf("Expected 4 messages in second request, got %d", len(secondReq.Messages))
	}
	if secondReq.Messages[2].Role != chat.RoleTool || secondReq.Messages[2].ToolCallID != "call_a" {
		t.Errorf("Second request missing tool result for call_a: %+v", secondReq.Messages[2])
	}
}

func TestLoopExceededExecutesFinalRoundTools(t *testing.T) {
	call := chat.ToolCall{ID: "call_1", Type: "function", Name: "spin", Arguments: "{}"}
	// The model asks for tools every round, forever.
	streamer := &scriptedStreamer{outcomes: []stream.Outcome{
		toolsOutcome(call), toolsOutcome(call), toolsOutcome(call),
	}}
	runner := &scriptedRunner{content: `{"ok":true}`}
	persist, persisted := collectPersisted()

	loop := NewLoop(streamer, runner, 3, nil)
	result, err := loop.Run(context.Background(), RoundConfig{}, nil, nil, persist)

	var exceeded *apperrors.ToolLoopExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected ToolLoopExceededError, got %v", err)
	}
	if exceeded.Rounds != 3 {
		t.Errorf("Expected 3 rounds in error, got %d", exceeded.Rounds)
	}
	if result == nil || result.Rounds != 3 {
		t.Fatalf("Expected valid result with 3 rounds, got %+v", result)
	}
	if streamer.calls != 3 {
		t.Errorf("Expected exactly 3 stream cycles, got %d", streamer.calls)
	}

	// Tools executed on every round including the last, so no assistant
	// tool call is left dangling without a tool result.
	if len(runner.calls) != 3 {
		t.Errorf("Expected tools executed 3 times, got %d", len(runner.calls))
	}
	msgs := *persisted
	if len(msgs) != 6 {
		t.Fatalf("Expected 6 persisted messages (3 turns + 3 results), got %d", len(msgs))
	}
	if msgs[len(msgs)-1].Role != chat.RoleTool {
		t.Errorf("Last persisted message should be a tool result, got %+v", msgs[len(msgs)-1])
	}
}

func TestLoopStreamInterruptionKeepsPartial(t *testing.T) {
	partial := stream.Outcome{
		Kind:    stream.Incomplete,
		Message: chat.Message{Role: chat.RoleAssistant, Content: "Good morn"},
	}
	streamer := &scriptedStreamer{
		outcomes: []stream.Outcome{partial},
		errs:     []error{apperrors.NewStreamInterruptedError("Good morn", nil)},
	}
	persist, persisted := collectPersisted()

	loop := NewLoop(streamer, &scriptedRunner{}, 5, nil)
	result, err := loop.Run(context.Background(), RoundConfig{}, nil, nil, persist)

	var interrupted *apperrors.StreamInterruptedError
	if !errors.As(err, &interrupted) {
		t.Fatalf("Expected StreamInterruptedError, got %v", err)
	}
	if result.Outcome != stream.Incomplete {
		t.Errorf("Expected Incomplete outcome, got %v", result.Outcome)
	}
	if result.Final.Content != "Good morn" {
		t.Errorf("Partial content must survive, got '%s'", result.Final.Content)
	}
	if len(*persisted) != 1 || (*persisted)[0].Content != "Good morn" {
		t.Errorf("Partial message must be persisted, got %+v", *persisted)
	}
}

func TestLoopInterruptionWithNothingAccumulated(t *testing.T) {
	streamer := &scriptedStreamer{
		outcomes: []stream.Outcome{{Kind: stream.Incomplete}},
		errs:     []error{apperrors.NewStreamInterruptedError("", nil)},
	}
	persist, persisted := collectPersisted()

	loop := NewLoop(streamer, &scriptedRunner{}, 5, nil)
	_, err := loop.Run(context.Background(), RoundConfig{}, nil, nil, persist)
	if err == nil {
		t.Fatal("Expected error")
	}
	// An empty partial produces no message at all.
	if len(*persisted) != 0 {
		t.Errorf("Expected nothing persisted, got %+v", *persisted)
	}
}

func TestLoopUsageSummedAcrossRounds(t *testing.T) {
	round1 := toolsOutcome(chat.ToolCall{ID: "c1", Type: "function", Name: "t", Arguments: "{}"})
	round1.Message.Usage = chat.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	round2 := completeOutcome("done")
	round2.Message.Usage = chat.Usage{PromptTokens: 20, CompletionTokens: 7, TotalTokens: 27}

	streamer := &scriptedStreamer{outcomes: []stream.Outcome{round1, round2}}
	loop := NewLoop(streamer, &scriptedRunner{content: "{}"}, 5, nil)

	result, err := loop.Run(context.Background(), RoundConfig{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := chat.Usage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42}
	if result.Usage != want {
		t.Errorf("Expected summed usage %+v, got %+v", want, result.Usage)
	}
}

func TestLoopPersistFailureAborts(t *testing.T) {
	streamer := &scriptedStreamer{outcomes: []stream.Outcome{completeOutcome("done")}}
	loop := NewLoop(streamer, &scriptedRunner{}, 5, nil)

	sentinel := errors.New("disk full")
	_, err := loop.Run(context.Background(), RoundConfig{}, nil, nil, func(chat.Message) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected persistence error surfaced, got %v", err)
	}
}

func TestLoopMinimumOneRound(t *testing.T) {
	streamer := &scriptedStreamer{outcomes: []stream.Outcome{completeOutcome("hi")}}
	loop := NewLoop(streamer, &scriptedRunner{}, 0, nil)

	result, err := loop.Run(context.Background(), RoundConfig{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Rounds != 1 {
		t.Errorf("maxRounds below 1 must clamp to 1, got %d rounds", result.Rounds)
	}
}
