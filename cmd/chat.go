package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/convo/internal/cli"
	apperrors "github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/session"
	"github.com/user/convo/internal/stream"
)

var chatConversationID string

// chatCmd sends one message and streams the reply to stdout
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message and stream the reply",
	Long: `Send a single user message, stream the assistant's reply to stdout as it
arrives, execute any tool calls the model requests, and persist the
resulting turns. Use --conversation to continue an existing conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "Conversation id to continue")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// SIGINT cancels the turn; the partial reply is still persisted.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	text := strings.Join(args, " ")

	result, err := a.driver.Send(ctx, chatConversationID, text, session.SendOptions{
		Character: characterFlag,
		Key:       keyFlag,
		Observer: func(delta stream.Delta) {
			if verboseFlag && delta.ReasoningContent != "" {
				fmt.Print(cli.StyleReasoning.Render(delta.ReasoningContent))
			}
			fmt.Print(delta.Content)
		},
	})
	fmt.Println()

	if result != nil {
		switch result.Outcome {
		case stream.Truncated:
			fmt.Fprintln(os.Stderr, cli.StyleWarning.Render("response was cut off by the max token limit"))
		case stream.Filtered:
			fmt.Fprintln(os.Stderr, cli.StyleWarning.Render("response was rejected by the provider's content policy"))
		}
		if verboseFlag {
			fmt.Fprintln(os.Stderr, cli.StyleMuted.Render(fmt.Sprintf(
				"conversation %s — tokens: %d prompt, %d completion (%d rounds)",
				result.ConversationID,
				result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Rounds)))
		}
	}

	return chatExitErr(err, result)
}

// chatExitErr maps an interrupted turn that still streamed and persisted
// partial output to the partial-success sentinel. Returning (not exiting)
// lets runChat's deferred cleanup run; Execute maps the sentinel to the
// partial-success exit code.
func chatExitErr(err error, result *session.TurnResult) error {
	var interrupted *apperrors.StreamInterruptedError
	if errors.As(err, &interrupted) && result != nil && result.Message.Content != "" {
		fmt.Fprintln(os.Stderr, cli.StyleWarning.Render("stream interrupted; partial reply kept"))
		return errPartialSuccess
	}
	return err
}
