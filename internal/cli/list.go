package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested sources",
	Long:  `Lists every ingested source, most recently imported first.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if eng == nil {
		return errors.New("engine not configured")
	}

	sources, err := eng.ListSources(context.Background())
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(sources, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(sources) == 0 {
		cmd.Println("No sources ingested.")
		return nil
	}
	for _, s := range sources {
		cmd.Printf("%s (%s): %d pages, %d chunks, imported %s\n",
			s.ID, s.DisplayName, s.Pages, s.Chunks, s.ImportedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
