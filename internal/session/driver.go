package session

import (
	"context"
	"time"

	"github.com/user/convo/internal/chat"
	"github.com/user/convo/internal/config"
	"github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/llm"
	"github.com/user/convo/internal/logging"
	"github.com/user/convo/internal/store"
	"github.com/user/convo/internal/stream"
	"github.com/user/convo/internal/tool"
)

// Persistence is the narrow contract the driver needs from storage
type Persistence interface {
	KeyStore
	CreateConversation(ctx context.Context, title, character string) (*store.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, m chat.Message) error
	LoadHistory(ctx context.Context, conversationID string) ([]chat.Message, error)
}

// Driver is the outward-facing session operation: it resolves configuration,
// runs the tool loop for one user message, streams partial output to the
// observer and persists every resulting turn. All mutable state is scoped to
// one call; concurrent sessions over different conversations share nothing
// but read-only configuration.
type Driver struct {
	cfg      *config.GlobalConfig
	st       Persistence
	registry *tool.Registry
	logger   *logging.Logger

	// newStreamer is swappable for tests
	newStreamer func(endpoint, secret string) Streamer
}

// NewDriver creates a session driver
func NewDriver(cfg *config.GlobalConfig, st Persistence, registry *tool.Registry, logger *logging.Logger) *Driver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Driver{
		cfg:      cfg,
		st:       st,
		registry: registry,
		logger:   logger,
	}
	d.newStreamer = func(endpoint, secret string) Streamer {
		retry := llm.NewRetryClient(retryConfig(cfg.Retry))
		return llm.NewClient(endpoint, secret, retry, logger.Named("llm"))
	}
	return d
}

// SendOptions configures one Send call
type SendOptions struct {
	Character string // Character name; empty uses the configured default
	Key       string // Explicit key name overriding the character's preference
	// Observer receives every folded delta for incremental rendering
	Observer llm.DeltaObserver
	// Interactive disables the stream deadline; cancellation comes from
	// the caller's context instead
	Interactive bool
}

// TurnResult is the outcome of one Send
type TurnResult struct {
	ConversationID string
	Message        chat.Message
	Outcome        stream.OutcomeKind
	Usage          chat.Usage
	Rounds         int
}

// Send appends one user message to the conversation (creating it when
// conversationID is empty) and drives the tool loop to a terminal outcome.
//
// On StreamInterrupted and ToolLoopExceeded the returned TurnResult is
// still valid: partial turns were persisted and the result reflects them.
func (d *Driver) Send(ctx context.Context, conversationID, text string, opts SendOptions) (*TurnResult, error) {
	character, charName, ok := d.cfg.Character(opts.Character)
	if !ok {
		if opts.Character != "" {
			return nil, errors.NewUnknownCharacterError(opts.Character)
		}
		character = config.DefaultCharacter()
	}

	key, err := ResolveKey(ctx, d.st, opts.Key, character.PreferredKey, charName)
	if err != nil {
		return nil, err
	}

	if conversationID == "" {
		conv, err := d.st.CreateConversation(ctx, conversationTitle(text), charName)
		if err != nil {
			return nil, err
		}
		conversationID = conv.ID
	}

	history, err := d.st.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	userMsg := chat.Message{Role: chat.RoleUser, Content: text}
	if err := d.st.AppendMessage(ctx, conversationID, userMsg); err != nil {
		return nil, err
	}
	history = append(history, userMsg)

	options := llm.Options{
		Model:            key.Model,
		Temperature:      character.Temperature,
		TopP:             character.TopP,
		MaxTokens:        character.MaxTokens,
		PresencePenalty:  character.PresencePenalty,
		FrequencyPenalty: character.FrequencyPenalty,
		Extra:            character.Extra,
	}
	if key.FunctionCalling && d.cfg.Session.EnableTools && d.registry != nil && d.registry.Len() > 0 {
		options.Tools = d.registry.Definitions()
	}

	roundCfg := RoundConfig{
		Options:       options,
		SystemPrompt:  character.SystemPrompt,
		ContextBudget: contextBudget(key, character),
	}

	if !opts.Interactive {
		if timeout := d.cfg.Session.StreamTimeoutDuration(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	executor := tool.NewExecutor(d.registry, d.cfg.Session.MaxParallelTools, d.logger.Named("tools"))
	loop := NewLoop(
		d.newStreamer(key.Endpoint, key.Secret),
		executor,
		d.cfg.Session.MaxRounds,
		d.logger.Named("loop"),
	)

	persist := func(m chat.Message) error {
		// Persistence runs outside the turn's cancellable context: a
		// cancelled turn must still flush its partial message.
		return d.st.AppendMessage(context.WithoutCancel(ctx), conversationID, m)
	}

	result, loopErr := loop.Run(ctx, roundCfg, history, opts.Observer, persist)
	if result == nil {
		return nil, loopErr
	}

	d.logger.Info("turn finished",
		logging.String("conversation", conversationID),
		logging.String("outcome", result.Outcome.String()),
		logging.Int("rounds", result.Rounds),
		logging.Int("total_tokens", result.Usage.TotalTokens))

	return &TurnResult{
		ConversationID: conversationID,
		Message:        result.Final,
		Outcome:        result.Outcome,
		Usage:          result.Usage,
		Rounds:         result.Rounds,
	}, loopErr
}

// contextBudget derives the request-view token budget from the key's
// context length, reserving room for the system prompt, tool schemas and
// the model's output.
func contextBudget(key *store.KeyRecord, character config.Character) int {
	if key.ContextLength <= 0 {
		return 0
	}
	budget := key.ContextLength - character.MaxTokens - chat.EstimateTokens(character.SystemPrompt)
	// Reserve a slice for tool schemas and framing.
	budget -= 512
	if budget < 1024 {
		budget = 1024
	}
	return budget
}

func conversationTitle(text string) string {
	const maxTitle = 60
	title := text
	if len(title) > maxTitle {
		title = title[:maxTitle]
	}
	return title
}

func retryConfig(rc config.RetryConfig) *llm.RetryConfig {
	cfg := llm.DefaultRetryConfig()
	if rc.MaxAttempts > 0 {
		cfg.MaxAttempts = rc.MaxAttempts
	}
	if rc.Multiplier > 0 {
		cfg.Multiplier = rc.Multiplier
	}
	if rc.MaxWaitPerAttempt > 0 {
		cfg.MaxWaitPerAttempt = secondsDuration(rc.MaxWaitPerAttempt)
	}
	if rc.MaxTotalWait > 0 {
		cfg.MaxTotalWait = secondsDuration(rc.MaxTotalWait)
	}
	return cfg
}

func secondsDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
