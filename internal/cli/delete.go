package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Delete a source and all of its chunks",
	Long: `Removes a source's chunks, their FTS mirror rows, and the source
row itself. Deleting an id with no rows is a no-op, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if eng == nil {
		return errors.New("engine not configured")
	}
	sourceID := args[0]

	if err := eng.DeleteSource(context.Background(), sourceID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	cmd.Printf("Deleted source %q.\n", sourceID)
	return nil
}
