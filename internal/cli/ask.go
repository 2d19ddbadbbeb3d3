package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clinicpulse/clinicpulse/internal/genie"
)

var (
	askConversation string
	askJSON         bool
	askQuiet        bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the Genie data assistant a question",
	Long: `Ask the Genie data assistant a free-text question about clinic data.

The command polls until Genie finishes, printing status updates to stderr
as it goes. Tabular results are rendered as a table; use --json for the
raw response.

Use --conversation to continue an earlier exchange:

  clinicpulse ask "How many appointments did we have last week?"
  clinicpulse ask --conversation 01ef-... "And the week before?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "conversation id to continue")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the raw JSON response")
	askCmd.Flags().BoolVarP(&askQuiet, "quiet", "q", false, "suppress status updates")
}

func runAsk(cmd *cobra.Command, args []string) error {
	client := genie.New(cfg, logger)
	if !client.IsConfigured() {
		return errors.New("Genie is not configured: set DATABRICKS_HOST, DATABRICKS_TOKEN and GENIE_SPACE_ID")
	}

	var onStatus genie.StatusFunc
	if !askQuiet && !askJSON {
		onStatus = func(status genie.Status) {
			fmt.Fprintf(os.Stderr, "  status: %s\n", status)
		}
	}

	resp, err := client.SendMessage(cmd.Context(), genie.Request{
		Message:        args[0],
		ConversationID: askConversation,
	}, onStatus)
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Content)

	if resp.QueryResult != nil {
		fmt.Println()
		printTable(resp.QueryResult)
	}

	if len(resp.SuggestedQuestions) > 0 {
		fmt.Println("\nSuggested follow-ups:")
		for _, q := range resp.SuggestedQuestions {
			fmt.Printf("  - %s\n", q)
		}
	}

	fmt.Fprintf(os.Stderr, "\nconversation: %s\n", resp.ConversationID)
	return nil
}

func printTable(result *genie.QueryResult) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	fmt.Printf("(%d rows)\n", result.RowCount)
}
