package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all indexed content for the tenant",
	Long: `Removes every chunk belonging to the tenant from the index. Other
tenants are unaffected. Purging a tenant with no data succeeds with
zero deletions.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	tenant := tenantID()

	if !purgeYes {
		cmd.Printf("Delete all indexed content for tenant %q? [y/N]: ", tenant)
		var answer string
		fmt.Fscanln(cmd.InOrStdin(), &answer) //nolint:errcheck // empty answer means no
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	result, err := ingestService.Purge(cmd.Context(), tenant)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	cmd.Printf("Deleted %d chunks for tenant %q\n", result.DeletedCount, tenant)
	return nil
}
