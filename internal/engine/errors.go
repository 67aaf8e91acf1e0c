package engine

import "errors"

// Sentinel errors for the four recoverable fault categories the engine
// surfaces to callers. Programmer faults (out-of-range limit/expand/
// batch/startPage/maxChars) are not represented here: they panic at the
// call site, matching the teacher's assertion-style guards for
// arguments a caller should never be able to get wrong.
var (
	// ErrNoLoader is an input fault: no configured loader accepted the
	// given input.
	ErrNoLoader = errors.New("engine: no loader supports this input")

	// ErrSourceNotFound is an input fault: the requested source id has
	// no rows in the store.
	ErrSourceNotFound = errors.New("engine: source not found")

	// ErrEmbedderRequired is an embedder fault: the requested operation
	// needs an embedder and none was configured.
	ErrEmbedderRequired = errors.New("engine: embedder required for this operation")

	// ErrEmbeddingCountMismatch is an embedder fault: a batch embed call
	// returned a different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("engine: embedder returned a different number of vectors than requested")
)
