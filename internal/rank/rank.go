// Package rank fuses lexical (BM25) and semantic (cosine) relevance
// scores into a single ranking. The arithmetic is grounded on the
// weighted-merge shape of the teacher's reciprocalRankFusion in
// internal/core/services/search.go, generalized from rank-position
// fusion to the min-max score fusion this engine's contract requires.
package rank

import "sort"

// NormBM25 min-max normalizes a raw BM25 score x against the candidate
// pool's [min, max] range, inverting so that a lower raw BM25 (better
// match, per FTS5 convention) produces a higher normalized score. When
// the pool has no spread (max == min) every candidate normalizes to 1.
func NormBM25(min, max, x float64) float64 {
	if max == min {
		return 1
	}
	return (max - x) / (max - min)
}

// NormCosine affine-maps a cosine similarity in [-1, 1] to [0, 1] and
// clamps the result, guarding against callers passing a value slightly
// outside range due to floating point error.
func NormCosine(y float64) float64 {
	nc := (y + 1) / 2
	if nc < 0 {
		return 0
	}
	if nc > 1 {
		return 1
	}
	return nc
}

// Fuse combines a normalized BM25 score with an optional normalized
// cosine score using weight w (the share given to the lexical signal).
// When cosine is absent, the fused score is the BM25 score alone.
func Fuse(nb float64, nc *float64, w float64) float64 {
	if nc == nil {
		return nb
	}
	return w*nb + (1-w)*(*nc)
}

// Candidate is one scored item going into a fused ranking. Payload
// carries the caller's original record through the sort so callers do
// not need a parallel-slice dance to recover it afterward.
type Candidate struct {
	Ordinal int64
	BM25    float64
	Cosine  *float64
	Fused   float64
	Payload any
}

// Sort orders candidates by descending fused score, breaking ties by
// ascending raw BM25 (better lexical match first) and then by ascending
// ordinal, matching the tie-break the retrieval orchestrator pins.
func Sort(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Fused != b.Fused {
			return a.Fused > b.Fused
		}
		if a.BM25 != b.BM25 {
			return a.BM25 < b.BM25
		}
		return a.Ordinal < b.Ordinal
	})
}
