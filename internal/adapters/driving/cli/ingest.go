package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sage-labs/sage-cli/internal/connectors/filesystem"
	"github.com/sage-labs/sage-cli/internal/logger"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest documents into the knowledge base",
	Long: `Loads plain text and markdown files from a file or directory,
chunks and embeds them, and stores them for retrieval.

With --watch, keeps running and re-ingests files as they change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch the path and re-ingest on change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}
	path := args[0]

	report, err := assistantService.Ingest(context.Background(), path)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Ingested %d documents (%d chunks)\n", report.Documents, report.Chunks)

	if !ingestWatch {
		return nil
	}

	return watchAndIngest(cmd, path)
}

// watchAndIngest blocks re-ingesting changed files until interrupted.
func watchAndIngest(cmd *cobra.Command, path string) error {
	watcher, err := filesystem.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)\n", path)

	err = watcher.Run(ctx, func(changed string) {
		report, err := assistantService.Ingest(context.Background(), changed)
		if err != nil {
			logger.Error("Re-ingesting %s: %v", changed, err)
			return
		}
		cmd.Printf("Re-ingested %s (%d chunks)\n", changed, report.Chunks)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
