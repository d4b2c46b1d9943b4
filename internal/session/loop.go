package session

import (
	"context"

	"github.com/user/convo/internal/chat"
	"github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/llm"
	"github.com/user/convo/internal/logging"
	"github.com/user/convo/internal/stream"
	"github.com/user/convo/internal/tool"
)

// Streamer runs one request/stream/classify cycle
type Streamer interface {
	StreamChat(ctx context.Context, body []byte, observe llm.DeltaObserver) (stream.Outcome, error)
}

// ToolRunner executes one round's tool calls, returning one result per
// invocation in the original call order
type ToolRunner interface {
	Run(ctx context.Context, invocations []stream.ToolInvocation) []tool.Result
}

// RoundConfig is the per-turn configuration shared by every round of a loop
type RoundConfig struct {
	Options      llm.Options
	SystemPrompt string
	// ContextBudget trims the request view of history to this many
	// estimated tokens before each round. 0 disables trimming.
	ContextBudget int
}

// Result is the terminal state of one loop run
type Result struct {
	Final   chat.Message       // Last assistant message produced
	Outcome stream.OutcomeKind // Classification of the final cycle
	Usage   chat.Usage         // Summed across all rounds
	Rounds  int                // Rounds actually executed
}

// Loop drives repeated request/stream/accumulate/execute-tools cycles until
// the model produces a terminal outcome or the round bound is reached.
type Loop struct {
	streamer  Streamer
	tools     ToolRunner
	maxRounds int
	logger    *logging.Logger
}

// NewLoop creates a loop bounded at maxRounds request cycles (minimum 1)
func NewLoop(streamer Streamer, tools ToolRunner, maxRounds int, logger *logging.Logger) *Loop {
	if maxRounds < 1 {
		maxRounds = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Loop{
		streamer:  streamer,
		tools:     tools,
		maxRounds: maxRounds,
		logger:    logger,
	}
}

// Run executes the loop over the given history. Every message the loop
// appends (assistant turns and tool results) is reported through persist
// before the loop continues, so callers always see a consistent,
// inspectable conversation even on abnormal exits.
//
// On StreamInterrupted and ToolLoopExceeded the returned Result is valid
// alongside the error: partial output is preserved, never discarded.
func (l *Loop) Run(
	ctx context.Context,
	cfg RoundConfig,
	history []chat.Message,
	observe llm.DeltaObserver,
	persist func(chat.Message) error,
) (*Result, error) {
	result := &Result{}

	appendMsg := func(m chat.Message) error {
		if persist != nil {
			if err := persist(m); err != nil {
				return err
			}
		}
		history = append(history, m)
		return nil
	}

	for round := 1; round <= l.maxRounds; round++ {
		result.Rounds = round

		requestView := history
		if cfg.ContextBudget > 0 {
			requestView = chat.TrimHistory(history, cfg.ContextBudget)
		}

		body, err := llm.BuildRequestBody(cfg.Options, cfg.SystemPrompt, requestView)
		if err != nil {
			return nil, err
		}

		l.logger.Debug("starting round",
			logging.Int("round", round),
			logging.Int("history_len", len(requestView)))

		out, streamErr := l.streamer.StreamChat(ctx, body, observe)

		for _, slotErr := range out.SlotErrors {
			l.logger.Warn("dropped malformed tool slot", logging.Error(slotErr))
		}

		result.Usage = result.Usage.Add(out.Message.Usage)

		if streamErr != nil {
			// Interrupted or malformed stream: keep whatever text arrived
			// as a best-effort assistant message so the caller sees partial
			// output rather than nothing.
			if out.Message.Content != "" || out.Message.ReasoningContent != "" {
				if err := appendMsg(out.Message); err != nil {
					return nil, err
				}
				result.Final = out.Message
			}
			result.Outcome = stream.Incomplete
			return result, streamErr
		}

		if err := appendMsg(out.Message); err != nil {
			return nil, err
		}
		result.Final = out.Message
		result.Outcome = out.Kind

		if out.Kind.Terminal() {
			return result, nil
		}

		// Tool round-trip. Results come back in call order; each becomes
		// one tool-role message immediately following the assistant turn
		// that proposed it, which is part of the wire contract.
		toolResults := l.tools.Run(ctx, out.Invocations)
		for _, tr := range toolResults {
			toolMsg := chat.Message{
				Role:       chat.RoleTool,
				Content:    tr.Content,
				ToolCallID: tr.CallID,
			}
			if err := appendMsg(toolMsg); err != nil {
				return nil, err
			}
		}

		if ctx.Err() != nil {
			// Cancelled while executing tools. The tool results above were
			// still appended (as cancelled payloads), so no assistant
			// tool-call dangles without a response.
			result.Outcome = stream.Incomplete
			return result, errors.NewStreamInterruptedError(out.Message.Content, ctx.Err())
		}
	}

	return result, errors.NewToolLoopExceededError(l.maxRounds)
}
