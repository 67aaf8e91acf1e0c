package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	backfillSource string
	backfillBatch  int
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed chunks that were ingested without a vector",
	Long: `Embeds every chunk lacking a stored vector, in batches, optionally
scoped to a single source. Requires an embedder to be configured.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillSource, "source", "", "restrict backfill to a single source id")
	backfillCmd.Flags().IntVar(&backfillBatch, "batch", 32, "chunks embedded per request")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if eng == nil {
		return errors.New("engine not configured")
	}

	var sourceID *string
	if backfillSource != "" {
		sourceID = &backfillSource
	}

	if err := eng.BackfillEmbeddings(context.Background(), sourceID, backfillBatch); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	cmd.Println("Backfill complete.")
	return nil
}
