package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folio-eng/folio/internal/engine"
	"github.com/folio-eng/folio/internal/textnorm"
)

var (
	searchLimit  int
	searchExpand int
	searchSource string
	searchWeight float64
	searchHybrid bool
	searchBare   bool
	searchJSON   bool
	searchStem   bool
)

var stemmer = textnorm.NewStemmer()

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Runs a query against the FTS index.

By default results are windowed passages assembled from BM25 hits and
their neighboring chunks (searchWithContext). --bare returns raw BM25
snippets with no neighbor expansion. --hybrid additionally fuses in
cosine similarity against an embedded query, weighted by --weight.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchExpand, "expand", 1, "neighboring chunks to include on each side of a hit")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict results to a single source id")
	searchCmd.Flags().Float64Var(&searchWeight, "weight", 0.5, "lexical (BM25) share of the fused score, in [0, 1]")
	searchCmd.Flags().BoolVar(&searchHybrid, "hybrid", false, "fuse in cosine similarity against an embedded query")
	searchCmd.Flags().BoolVar(&searchBare, "bare", false, "return raw BM25 snippets with no neighbor expansion")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchStem, "stem", false, "stem query terms before matching (for content indexed unstemmed)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if eng == nil {
		return errors.New("engine not configured")
	}
	query := args[0]
	if searchStem {
		query = stemmer.StemQuery(query)
	}

	var sourceFilter *string
	if searchSource != "" {
		sourceFilter = &searchSource
	}

	ctx := context.Background()

	if searchBare {
		hits, err := eng.Search(ctx, query, sourceFilter, searchLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return outputJSONOrPrint(cmd, hits, func() {
			printSnippets(cmd, hits)
		})
	}

	var (
		passages []engine.Passage
		err      error
	)
	if searchHybrid {
		passages, err = eng.SearchHybrid(ctx, query, sourceFilter, searchLimit, searchExpand, searchWeight)
	} else {
		passages, err = eng.SearchWithContext(ctx, query, sourceFilter, searchLimit, searchExpand)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return outputJSONOrPrint(cmd, passages, func() {
		printPassages(cmd, passages)
	})
}

func outputJSONOrPrint(cmd *cobra.Command, v any, print func()) error {
	if searchJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	print()
	return nil
}

func printSnippets(cmd *cobra.Command, hits []engine.Snippet) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, h := range hits {
		cmd.Println(resultHeaderStyle.Render(fmt.Sprintf("[%d] %s (bm25 %.3f)", i+1, h.SourceID, h.BM25)))
		cmd.Printf("    %s\n\n", wrapToWidth(h.Excerpt, 4))
	}
}

func printPassages(cmd *cobra.Command, passages []engine.Passage) {
	if len(passages) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, p := range passages {
		var header string
		if p.Cosine != nil {
			header = fmt.Sprintf("[%d] %s (bm25 %.3f, cosine %.3f, fused %.3f)", i+1, p.SourceID, p.BM25, *p.Cosine, p.Fused)
		} else {
			header = fmt.Sprintf("[%d] %s (bm25 %.3f)", i+1, p.SourceID, p.BM25)
		}
		cmd.Println(resultHeaderStyle.Render(header))
		if p.Page != nil {
			cmd.Printf("    page %d\n", *p.Page+1)
		}
		cmd.Printf("    %s\n\n", wrapToWidth(p.Excerpt, 4))
	}
}
