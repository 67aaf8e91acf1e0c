// Command folio is a thin CLI wrapper over the retrieval engine: ingest
// documents, search them, fetch a slice of one, and backfill
// embeddings. Wiring here is grounded on kxddry-rag-text-search's
// cmd/rag/main.go: a best-effort godotenv.Load(), a config file loaded
// over documented defaults, and component assembly gated on which
// optional pieces (here, the embedder) are actually configured.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/folio-eng/folio/internal/appdir"
	"github.com/folio-eng/folio/internal/cli"
	"github.com/folio-eng/folio/internal/config"
	"github.com/folio-eng/folio/internal/engine"
	"github.com/folio-eng/folio/internal/ports"
	"github.com/folio-eng/folio/internal/ports/chunker"
	"github.com/folio-eng/folio/internal/ports/embedder"
	"github.com/folio-eng/folio/internal/ports/loader/pdfloader"
	"github.com/folio-eng/folio/internal/ports/loader/textloader"
	"github.com/folio-eng/folio/internal/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "folio:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("FOLIO_CONFIG")
	if cfgPath == "" {
		cfgPath = "folio.toml"
	}
	cfg, err := config.LoadTOML(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dbPath, err := appdir.Resolve(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	st, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	opts := []engine.Option{
		engine.WithLoader(pdfloader.New()),
		engine.WithLoader(textloader.New()),
	}

	if emb, err := embedderFromEnv(); err != nil {
		return fmt.Errorf("configuring embedder: %w", err)
	} else if emb != nil {
		opts = append(opts, engine.WithEmbedder(emb))
	}

	chunkerOpts := []chunker.Option{}
	if cfg.Chunking.MaxTokensPerChunk > 0 {
		maxChars, _ := ports.ChunkConfig{MaxTokensPerChunk: cfg.Chunking.MaxTokensPerChunk}.CharBudget()
		chunkerOpts = append(chunkerOpts, chunker.WithChunkSize(maxChars))
	}
	if cfg.Chunking.OverlapTokens > 0 {
		_, overlapChars := ports.ChunkConfig{OverlapTokens: cfg.Chunking.OverlapTokens}.CharBudget()
		chunkerOpts = append(chunkerOpts, chunker.WithOverlap(overlapChars))
	}

	eng := engine.New(st, chunker.New(chunkerOpts...), opts...)
	return cli.Execute(eng)
}

// embedderFromEnv configures an OpenAI-compatible embedder from
// environment variables, returning (nil, nil) when no API key is set
// so the engine runs in lexical-only mode by default.
func embedderFromEnv() (*embedder.OpenAI, error) {
	apiKey := os.Getenv("FOLIO_EMBEDDER_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, nil
	}

	return embedder.New(embedder.Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("FOLIO_EMBEDDER_BASE_URL"),
		Model:   os.Getenv("FOLIO_EMBEDDER_MODEL"),
	})
}
