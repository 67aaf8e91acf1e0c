// Package engine implements the retrieval and ingest orchestrators that
// sit between the store and its external collaborators (loaders, a
// chunker, an embedder, and an optional caller-supplied prefix
// function). It is grounded on the teacher's
// internal/core/services.SearchService and DocumentService: a thin
// struct wiring driven ports together, with the orchestration logic
// living in ordinary methods rather than a framework.
package engine

import (
	"github.com/folio-eng/folio/internal/ports"
	"github.com/folio-eng/folio/internal/store"
)

// Engine wires the store to its external collaborators and exposes the
// search, fetch, ingest, and backfill operations built on top of them.
type Engine struct {
	store    store.Store
	loaders  []ports.Loader
	chunker  ports.Chunker
	embedder ports.Embedder
	prefixFn ports.PrefixFunc
	filter   ports.HeaderFooterFilter
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLoader registers a loader. Loaders are tried in registration
// order; the first whose Supports predicate accepts an input wins.
func WithLoader(l ports.Loader) Option {
	return func(e *Engine) { e.loaders = append(e.loaders, l) }
}

// WithEmbedder configures the embedder used by hybrid search, inline
// embedding during async ingest, and embedding backfill.
func WithEmbedder(embedder ports.Embedder) Option {
	return func(e *Engine) { e.embedder = embedder }
}

// WithPrefixFunc configures the caller-supplied contextual prefix
// generator used by async ingest. When absent, async ingest falls back
// to the heuristic contextualizer for every chunk.
func WithPrefixFunc(fn ports.PrefixFunc) Option {
	return func(e *Engine) { e.prefixFn = fn }
}

// WithHeaderFooterFilter configures a filter run on a loaded document
// before chunking. The default is the identity filter: header/footer
// removal heuristics are an external collaborator this module does not
// implement.
func WithHeaderFooterFilter(filter ports.HeaderFooterFilter) Option {
	return func(e *Engine) { e.filter = filter }
}

// New constructs an Engine over st and chunker, applying opts.
func New(st store.Store, chunker ports.Chunker, opts ...Option) *Engine {
	e := &Engine{store: st, chunker: chunker}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// loaderFor returns the first registered loader that accepts input.
func (e *Engine) loaderFor(input string) ports.Loader {
	for _, l := range e.loaders {
		if l.Supports(input) {
			return l
		}
	}
	return nil
}

// combineAugmented concatenates a contextual prefix and chunk content
// into the augmented text stored in the FTS mirror and passed to the
// embedder. A non-empty prefix is separated from content by a single
// space so the store's excerpt-stripping contract ("sectionTitle + ' '"
// as a literal prefix) can match it; an empty prefix leaves content
// unchanged.
func combineAugmented(prefix, content string) string {
	if prefix == "" {
		return content
	}
	return prefix + " " + content
}
