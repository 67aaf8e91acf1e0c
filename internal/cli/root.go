// Package cli wires the engine to a spf13/cobra command tree, grounded
// on the teacher's internal/adapters/driving/cli package: package-level
// command variables registered from init(), a package-level service
// handle set once by the caller before Execute runs, and RunE handlers
// that fail loudly when that handle is unconfigured. The teacher's own
// root command was not retrieved with the rest of the pack, so this
// file is authored fresh in that same style.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/folio-eng/folio/internal/engine"
	"github.com/folio-eng/folio/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio is an embedded retrieval engine for local documents",
	Long: `Folio ingests text and PDF documents into a local SQLite-backed
index and serves keyword, contextual, and hybrid search over them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

// eng is the engine every subcommand's RunE dispatches to. It is set
// once by Execute's caller (cmd/folio's main) before the command tree
// runs.
var eng *engine.Engine

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the command tree against e.
func Execute(e *engine.Engine) error {
	eng = e
	return rootCmd.Execute()
}
