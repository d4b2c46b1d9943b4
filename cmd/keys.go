package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/convo/internal/cli"
	"github.com/user/convo/internal/store"
	"golang.org/x/term"
)

var (
	keyModel           string
	keyEndpoint        string
	keyFunctionCalling bool
	keyContextLength   int
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage stored API keys",
}

var keysAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add or update an API key",
	Long: `Store an API key under a name. The secret is read from stdin so it never
lands in shell history. Adding a name that already exists replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: runKeysAdd,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored API keys",
	Args:  cobra.NoArgs,
	RunE:  runKeysList,
}

var keysRmCmd = &cobra.Command{
	Use:   "rm [name]",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRm,
}

func init() {
	keysAddCmd.Flags().StringVar(&keyModel, "model", "", "Model identifier sent in requests")
	keysAddCmd.Flags().StringVar(&keyEndpoint, "endpoint", "", "Chat completions endpoint URL")
	keysAddCmd.Flags().BoolVar(&keyFunctionCalling, "function-calling", false, "Endpoint supports tool calls")
	keysAddCmd.Flags().IntVar(&keyContextLength, "context-length", 0, "Model context window in tokens (0 disables trimming)")
	keysAddCmd.MarkFlagRequired("model")
	keysAddCmd.MarkFlagRequired("endpoint")

	keysCmd.AddCommand(keysAddCmd, keysListCmd, keysRmCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	secret, err := readSecret()
	if err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("secret must not be empty")
	}

	rec := store.KeyRecord{
		Name:            args[0],
		Secret:          secret,
		Model:           keyModel,
		Endpoint:        keyEndpoint,
		FunctionCalling: keyFunctionCalling,
		ContextLength:   keyContextLength,
	}
	if err := a.st.AddKey(cmd.Context(), rec); err != nil {
		return err
	}
	fmt.Printf("key %q saved\n", rec.Name)
	return nil
}

func runKeysList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	keys, err := a.st.ListKeys(cmd.Context())
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println(cli.StyleMuted.Render("no keys stored; add one with `convo keys add`"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL\tENDPOINT\tTOOLS\tCONTEXT")
	for _, k := range keys {
		tools := "no"
		if k.FunctionCalling {
			tools = "yes"
		}
		ctxLen := "-"
		if k.ContextLength > 0 {
			ctxLen = fmt.Sprintf("%d", k.ContextLength)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", k.Name, k.Model, k.Endpoint, tools, ctxLen)
	}
	return w.Flush()
}

func runKeysRm(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.st.DeleteKey(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("key %q removed\n", args[0])
	return nil
}

// readSecret reads the key secret without echoing when stdin is a
// terminal, and reads one trimmed line otherwise (piped input).
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("secret: ")
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		b.Write(buf[:n])
		if err != nil {
			break
		}
	}
	line, _, _ := strings.Cut(b.String(), "\n")
	return strings.TrimSpace(line), nil
}
