package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest content into the tenant's index",
	Long: `Loads a source, splits it into overlapping chunks, embeds them and
stores them in the tenant's index. Each chunk is tagged with its
source so answers can cite where information came from.`,
}

var ingestPDFCmd = &cobra.Command{
	Use:   "pdf [file]",
	Short: "Ingest a local PDF file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, domain.SourcePDF, args[0])
	},
}

var ingestWebCmd = &cobra.Command{
	Use:   "web [url]",
	Short: "Ingest a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, domain.SourceWebsite, args[0])
	},
}

var ingestYouTubeCmd = &cobra.Command{
	Use:   "youtube [url]",
	Short: "Ingest a YouTube video transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, domain.SourceYouTube, args[0])
	},
}

func init() {
	ingestCmd.PersistentFlags().BoolVar(&ingestJSON, "json", false, "output result as JSON")
	ingestCmd.AddCommand(ingestPDFCmd)
	ingestCmd.AddCommand(ingestWebCmd)
	ingestCmd.AddCommand(ingestYouTubeCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, sourceType domain.SourceType, locator string) error {
	if err := initServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	result, err := ingestService.Ingest(cmd.Context(), sourceType, locator, tenantID())
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Ingested %s into tenant %q: %d chunks\n", locator, tenantID(), result.ChunkCount)
	if result.Pages > 0 {
		cmd.Printf("  Pages: %d\n", result.Pages)
	}
	if result.LinksExtracted > 0 {
		cmd.Printf("  Links extracted: %d\n", result.LinksExtracted)
	}
	return nil
}
