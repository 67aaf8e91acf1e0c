package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/folio-eng/folio/internal/ports"
	"github.com/folio-eng/folio/internal/ports/loader/fsloader"
)

var (
	ingestSourceID  string
	ingestName      string
	ingestAsync     bool
	ingestNoPrefix  bool
	ingestMaxTokens int
	ingestOverlap   int
	ingestIncludes  []string
	ingestExcludes  []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document, or every matching file under a directory",
	Long: `Loads, chunks, and indexes a text or PDF file. Given a directory,
walks it with --include/--exclude glob patterns and ingests every
matching file individually, using each file's path as its own source
id (--source and --name are ignored in that case, since neither one
identifies a single source).
By default the source id is the input path; pass --source to override it,
for example when re-ingesting the same logical document from a new path.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceID, "source", "", "source id (defaults to the input path; ignored for directory input)")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "display name (defaults to the input path; ignored for directory input)")
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "use the cached-prefix, inline-embedding ingest path")
	ingestCmd.Flags().BoolVar(&ingestNoPrefix, "no-prefix", false, "skip contextual prefix generation")
	ingestCmd.Flags().IntVar(&ingestMaxTokens, "max-tokens", 0, "override the chunk token budget (0 = engine default)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "override the chunk overlap in tokens (0 = engine default)")
	ingestCmd.Flags().StringSliceVar(&ingestIncludes, "include", nil, "glob patterns to include when path is a directory (default **/*)")
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "glob patterns to exclude when path is a directory")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if eng == nil {
		return errors.New("engine not configured")
	}
	path := args[0]

	// Inputs need not be filesystem paths (a loader may accept inline
	// text, a URL, ...), so a failed stat just falls through to
	// single-item ingest rather than erroring.
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return runIngestDir(cmd, path)
	}

	sourceID := ingestSourceID
	if sourceID == "" {
		sourceID = path
	}
	name := ingestName
	if name == "" {
		name = path
	}

	cfg := ports.ChunkConfig{MaxTokensPerChunk: ingestMaxTokens, OverlapTokens: ingestOverlap}
	if err := ingestOne(context.Background(), path, sourceID, name, cfg); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s as source %q.\n", path, sourceID)
	return nil
}

// runIngestDir walks root for files matching --include/--exclude and
// ingests each one individually, keyed on its own path.
func runIngestDir(cmd *cobra.Command, root string) error {
	walker := fsloader.New(ingestIncludes, ingestExcludes)
	files, err := walker.Walk(root)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if len(files) == 0 {
		cmd.Printf("No files matched under %s.\n", root)
		return nil
	}

	cfg := ports.ChunkConfig{MaxTokensPerChunk: ingestMaxTokens, OverlapTokens: ingestOverlap}
	ctx := context.Background()
	var failed int
	for _, f := range files {
		if err := ingestOne(ctx, f.Path, f.Path, f.Path, cfg); err != nil {
			cmd.PrintErrf("Ingest failed for %s: %v\n", f.Path, err)
			failed++
			continue
		}
		cmd.Printf("Ingested %s as source %q.\n", f.Path, f.Path)
	}
	cmd.Printf("Ingested %d/%d files under %s.\n", len(files)-failed, len(files), root)
	if failed > 0 {
		return fmt.Errorf("ingest: %d of %d files failed", failed, len(files))
	}
	return nil
}

func ingestOne(ctx context.Context, path, sourceID, name string, cfg ports.ChunkConfig) error {
	if ingestAsync {
		return eng.IngestAsync(ctx, sourceID, path, name, cfg)
	}
	return eng.Ingest(ctx, sourceID, path, name, cfg, !ingestNoPrefix)
}
