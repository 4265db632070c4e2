package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/logger"
)

// watchSettleDelay gives the writer time to finish before the file is
// read. Editors and downloaders emit several write events per file.
const watchSettleDelay = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and auto-ingest dropped PDF files",
	Long: `Watches a directory and ingests any PDF file created or modified in
it into the tenant's index. Useful as an uploads drop folder.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	if err := initServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for PDF files (tenant %q). Ctrl-C to stop.\n", dir, tenantID())

	// pending de-duplicates the event burst a single file produces.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)

		case <-ticker.C:
			for path, seen := range pending {
				if time.Since(seen) < watchSettleDelay {
					continue
				}
				delete(pending, path)

				result, err := ingestService.Ingest(ctx, domain.SourcePDF, path, tenantID())
				if err != nil {
					cmd.PrintErrf("Failed to ingest %s: %v\n", path, err)
					continue
				}
				cmd.Printf("Ingested %s: %d chunks\n", path, result.ChunkCount)
			}
		}
	}
}
