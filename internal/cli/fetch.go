package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	fetchPage     int
	fetchAnchor   string
	fetchExpand   int
	fetchMaxChars int
	fetchJSON     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [source-id]",
	Short: "Fetch a slice of a document",
	Long: `Resolves a cursor into a source's chunks and prints the joined text.
The cursor is an anchor substring match, else a start page, else the
whole document, in that priority order.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&fetchPage, "page", -1, "start page (0-based; unset means no page cursor)")
	fetchCmd.Flags().StringVar(&fetchAnchor, "anchor", "", "substring to locate within the document")
	fetchCmd.Flags().IntVar(&fetchExpand, "expand", 1, "neighboring chunks to include on each side (0-8)")
	fetchCmd.Flags().IntVar(&fetchMaxChars, "max-chars", 0, "truncate output to this many characters (0 = no limit)")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if eng == nil {
		return errors.New("engine not configured")
	}
	sourceID := args[0]

	var startPage *int
	if fetchPage >= 0 {
		startPage = &fetchPage
	}
	var maxChars *int
	if fetchMaxChars > 0 {
		maxChars = &fetchMaxChars
	}

	slice, err := eng.FetchDocument(context.Background(), sourceID, startPage, fetchAnchor, fetchExpand, maxChars)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if fetchJSON {
		data, err := json.MarshalIndent(slice, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if slice.Text == "" {
		cmd.Printf("%s (%s): no matching content.\n", sourceID, slice.DisplayName)
		return nil
	}
	if slice.StartPage != nil && slice.EndPage != nil {
		cmd.Printf("%s (%s), pages %d-%d\n\n", sourceID, slice.DisplayName, *slice.StartPage+1, *slice.EndPage+1)
	}
	cmd.Println(slice.Text)
	return nil
}
