package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/user/convo/internal/cli"
)

// replCmd starts the interactive chat session
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive chat session",
	Long: `Start an interactive read-eval-print loop. Each line you type is sent as
a user message; the reply streams back as it arrives. Ctrl-C interrupts
the current turn (keeping the partial reply); /exit quits.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	repl := cli.NewREPL(a.driver, os.Stdin, os.Stdout, characterFlag, keyFlag, verboseFlag, a.logger.Named("repl"))
	return repl.Run(cmd.Context())
}
