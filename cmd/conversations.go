package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/convo/internal/cli"
)

var conversationsLimit int

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs"},
	Short:   "List stored conversations",
	Long: `List stored conversations, most recently updated first. Pass a
conversation id to ` + "`convo chat --conversation`" + ` to continue one.`,
	Args: cobra.NoArgs,
	RunE: runConversations,
}

func init() {
	conversationsCmd.Flags().IntVar(&conversationsLimit, "limit", 20, "Maximum number of conversations to show")
	rootCmd.AddCommand(conversationsCmd)
}

func runConversations(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	convs, err := a.st.ListConversations(cmd.Context(), conversationsLimit)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println(cli.StyleMuted.Render("no conversations yet"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCHARACTER\tUPDATED\tTOKENS\tTITLE")
	for _, c := range convs {
		usage, err := a.st.ConversationUsage(cmd.Context(), c.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Character, c.UpdatedAt, usage.TotalTokens, c.Title)
	}
	return w.Flush()
}
