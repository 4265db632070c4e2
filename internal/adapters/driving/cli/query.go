package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryStream bool
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the tenant's ingested content",
	Long: `Answers a natural-language question using only the tenant's own
ingested documents. Mentioning a source kind in the question (e.g.
"the YouTube video", "the PDF") restricts retrieval to that source.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryStream, "stream", false, "stream the answer as it is generated")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := args[0]

	if err := initServices(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	if queryStream {
		return runQueryStream(cmd, question)
	}

	answer, err := queryService.Query(cmd.Context(), question, tenantID())
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(map[string]string{"answer": answer}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer)
	return nil
}

func runQueryStream(cmd *cobra.Command, question string) error {
	events, err := queryService.QueryStream(cmd.Context(), question, tenantID())
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	for ev := range events {
		switch {
		case ev.Err != nil:
			cmd.Println()
			return fmt.Errorf("query failed: %w", ev.Err)
		case ev.Done:
			cmd.Println()
			return nil
		default:
			cmd.Print(ev.Content)
		}
	}

	cmd.Println()
	return nil
}
