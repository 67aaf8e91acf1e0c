package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-eng/folio/internal/logger"
)

// SourceInfo summarizes one ingested source, as returned by ListSources.
type SourceInfo struct {
	ID          string
	DisplayName string
	FilePath    string
	Pages       int
	Chunks      int
	ImportedAt  time.Time
}

// ListSources returns every ingested source, most recently imported
// first.
func (e *Engine) ListSources(ctx context.Context) ([]SourceInfo, error) {
	logger.Section("List Sources")

	sources, err := e.store.ListSources(ctx)
	if err != nil {
		logger.Warn("Listing sources failed: %v", err)
		return nil, fmt.Errorf("engine: list sources: %w", err)
	}

	out := make([]SourceInfo, len(sources))
	for i, s := range sources {
		out[i] = SourceInfo{
			ID:          s.ID,
			DisplayName: s.DisplayName,
			FilePath:    s.FilePath,
			Pages:       s.Pages,
			Chunks:      s.Chunks,
			ImportedAt:  s.ImportedAt,
		}
	}
	logger.Info("List sources: %d sources", len(out))
	return out, nil
}

// DeleteSource removes a source's chunks, their FTS mirror rows, and
// the source row itself. Deleting an id with no rows is a no-op, not
// an error, matching the store's idempotent delete semantics.
func (e *Engine) DeleteSource(ctx context.Context, sourceID string) error {
	logger.Section("Delete Source")
	logger.Debug("Source: %q", sourceID)

	if err := e.store.DeleteSource(ctx, sourceID); err != nil {
		logger.Warn("Deleting source %q failed: %v", sourceID, err)
		return fmt.Errorf("engine: delete source %q: %w", sourceID, err)
	}
	logger.Info("Deleted source %q", sourceID)
	return nil
}
