package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	apperrors "github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/llm"
	"github.com/user/convo/internal/logging"
	"github.com/user/convo/internal/session"
	"github.com/user/convo/internal/stream"
)

// REPL is the interactive session surface: it reads user lines, streams the
// assistant's reply incrementally, and turns SIGINT into a cancellation of
// the in-flight turn rather than of the whole session.
type REPL struct {
	driver    *session.Driver
	in        io.Reader
	out       io.Writer
	logger    *logging.Logger
	character string
	key       string
	verbose   bool

	conversationID string
}

// NewREPL creates an interactive session
func NewREPL(driver *session.Driver, in io.Reader, out io.Writer, character, key string, verbose bool, logger *logging.Logger) *REPL {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &REPL{
		driver:    driver,
		in:        in,
		out:       out,
		logger:    logger,
		character: character,
		key:       key,
		verbose:   verbose,
	}
}

// Run reads lines until EOF or an exit command. Recognized control inputs:
// /exit (or exit) ends the session, /clear starts a fresh conversation,
// /history replays the conversation id for external inspection.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, StyleMuted.Render("convo — /exit to quit, /clear for a fresh conversation, Ctrl+C cancels the current response"))

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, StylePrompt.Render("you ❯ "))
		if !scanner.Scan() {
			// EOF is a normal end of input, distinct from cancellation.
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit", "exit":
			return nil
		case "/clear":
			r.conversationID = ""
			fmt.Fprintln(r.out, StyleMuted.Render("history cleared; next message starts a new conversation"))
			continue
		case "/history":
			if r.conversationID == "" {
				fmt.Fprintln(r.out, StyleMuted.Render("no conversation yet"))
			} else {
				fmt.Fprintln(r.out, StyleMuted.Render("conversation "+r.conversationID))
			}
			continue
		}

		if err := r.turn(ctx, line); err != nil {
			return err
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// turn runs one user message to a terminal outcome. SIGINT during the turn
// cancels only this turn; partial output is flushed and persisted by the
// driver, and control returns to the prompt.
func (r *REPL) turn(ctx context.Context, text string) error {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-turnCtx.Done():
		}
	}()

	result, err := r.driver.Send(turnCtx, r.conversationID, text, session.SendOptions{
		Character:   r.character,
		Key:         r.key,
		Interactive: true,
		Observer:    r.render,
	})
	if result != nil {
		r.conversationID = result.ConversationID
	}

	fmt.Fprintln(r.out)

	switch {
	case err == nil:
		switch result.Outcome {
		case stream.Truncated:
			fmt.Fprintln(r.out, StyleWarning.Render("response was cut off by the max token limit"))
		case stream.Filtered:
			fmt.Fprintln(r.out, StyleWarning.Render("response was rejected by the provider's content policy"))
		}
		if r.verbose {
			fmt.Fprintln(r.out, StyleMuted.Render(fmt.Sprintf(
				"tokens: %d prompt, %d completion (%d rounds)",
				result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Rounds)))
		}
		return nil

	case turnCtx.Err() != nil && ctx.Err() == nil:
		// User interrupt: the partial reply was saved, keep the session.
		fmt.Fprintln(r.out, StyleMuted.Render("interrupted; partial reply kept"))
		return nil

	default:
		var interrupted *apperrors.StreamInterruptedError
		var loopExceeded *apperrors.ToolLoopExceededError
		switch {
		case errors.As(err, &interrupted):
			fmt.Fprintln(r.out, StyleWarning.Render("stream interrupted; partial reply kept"))
		case errors.As(err, &loopExceeded):
			fmt.Fprintln(r.out, StyleWarning.Render(err.Error()))
		default:
			fmt.Fprintln(r.out, StyleError.Render(userMessage(err)))
		}
		return nil
	}
}

// render prints one delta as it streams in
func (r *REPL) render(delta stream.Delta) {
	if r.verbose && delta.ReasoningContent != "" {
		fmt.Fprint(r.out, StyleReasoning.Render(delta.ReasoningContent))
	}
	if delta.Content != "" {
		fmt.Fprint(r.out, delta.Content)
	}
}

func userMessage(err error) string {
	var convoErr *apperrors.ConvoError
	if errors.As(err, &convoErr) {
		return convoErr.GetUserMessage()
	}
	return "ERROR: " + err.Error()
}

// Observer returns the REPL's delta observer, for callers that drive a
// single-shot turn but still want REPL-style incremental rendering.
func (r *REPL) Observer() llm.DeltaObserver {
	return r.render
}
