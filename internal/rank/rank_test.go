package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormBM25NoSpread(t *testing.T) {
	assert.Equal(t, 1.0, NormBM25(2.0, 2.0, 2.0))
}

func TestNormBM25LowerIsBetter(t *testing.T) {
	// Lower raw BM25 (better match) must normalize higher.
	best := NormBM25(0.0, 10.0, 0.0)
	worst := NormBM25(0.0, 10.0, 10.0)
	assert.Equal(t, 1.0, best)
	assert.Equal(t, 0.0, worst)
	assert.Greater(t, best, worst)
}

func TestNormCosineAffineMap(t *testing.T) {
	assert.Equal(t, 0.0, NormCosine(-1))
	assert.Equal(t, 0.5, NormCosine(0))
	assert.Equal(t, 1.0, NormCosine(1))
}

func TestNormCosineClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 0.0, NormCosine(-1.5))
	assert.Equal(t, 1.0, NormCosine(1.5))
}

func TestFuseWithoutCosineReturnsBM25(t *testing.T) {
	assert.Equal(t, 0.7, Fuse(0.7, nil, 0.3))
}

func TestFuseWeightedAverage(t *testing.T) {
	nc := 0.2
	assert.InDelta(t, 0.65, Fuse(0.8, &nc, 0.75), 1e-9)
}

func TestSortOrdersByFusedDescending(t *testing.T) {
	candidates := []Candidate{
		{Ordinal: 1, BM25: 5, Fused: 0.2},
		{Ordinal: 2, BM25: 5, Fused: 0.9},
		{Ordinal: 3, BM25: 5, Fused: 0.5},
	}
	Sort(candidates)
	assert.Equal(t, []int64{2, 3, 1}, ordinals(candidates))
}

func TestSortTieBreaksByAscendingBM25(t *testing.T) {
	candidates := []Candidate{
		{Ordinal: 1, BM25: 3.0, Fused: 0.5},
		{Ordinal: 2, BM25: 1.0, Fused: 0.5},
		{Ordinal: 3, BM25: 2.0, Fused: 0.5},
	}
	Sort(candidates)
	assert.Equal(t, []int64{2, 3, 1}, ordinals(candidates))
}

func TestSortTieBreaksByAscendingOrdinal(t *testing.T) {
	candidates := []Candidate{
		{Ordinal: 3, BM25: 1.0, Fused: 0.5},
		{Ordinal: 1, BM25: 1.0, Fused: 0.5},
		{Ordinal: 2, BM25: 1.0, Fused: 0.5},
	}
	Sort(candidates)
	assert.Equal(t, []int64{1, 2, 3}, ordinals(candidates))
}

func TestSortPreservesPayload(t *testing.T) {
	candidates := []Candidate{
		{Ordinal: 1, Fused: 0.1, Payload: "low"},
		{Ordinal: 2, Fused: 0.9, Payload: "high"},
	}
	Sort(candidates)
	assert.Equal(t, "high", candidates[0].Payload)
	assert.Equal(t, "low", candidates[1].Payload)
}

func ordinals(candidates []Candidate) []int64 {
	out := make([]int64, len(candidates))
	for i, c := range candidates {
		out[i] = c.Ordinal
	}
	return out
}
