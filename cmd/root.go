package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	apperrors "github.com/user/convo/internal/errors"
)

var (
	debugFlag     bool
	verboseFlag   bool
	characterFlag string
	keyFlag       string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "convo",
	Short: "Streaming chat with OpenAI-compatible endpoints",
	Long: `Hold multi-turn conversations with an OpenAI-compatible chat-completion
endpoint, rendered incrementally as the response streams in, with transparent
support for model-invoked tool calls executed locally.

Conversations, messages and API keys are persisted in a local sqlite
database under ~/.convo/.`,
	Version:       "1.0.0",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// errPartialSuccess signals that an interrupted turn still produced and
// persisted partial output. Commands return it instead of calling os.Exit
// so their deferred cleanup (log sync, store close) runs first.
var errPartialSuccess = errors.New("partial reply kept")

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errPartialSuccess) {
			os.Exit(apperrors.ExitPartialSuccess.Int())
		}
		var convoErr *apperrors.ConvoError
		if errors.As(err, &convoErr) {
			fmt.Fprintln(os.Stderr, convoErr.GetUserMessage())
			os.Exit(convoErr.ExitCode.Int())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show reasoning traces and token usage")
	rootCmd.PersistentFlags().StringVarP(&characterFlag, "character", "c", "", "Character to chat as")
	rootCmd.PersistentFlags().StringVarP(&keyFlag, "key", "k", "", "API key name, overriding the character's preference")
}
