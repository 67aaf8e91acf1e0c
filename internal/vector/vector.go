// Package vector encodes and compares the float32 embedding vectors
// stored alongside document chunks. Vectors are packed as little-endian
// IEEE-754 float32 blobs so they can live in a plain SQLite BLOB column
// without a vector extension.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Pack encodes vec as a little-endian float32 blob.
func Pack(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Unpack decodes a little-endian float32 blob back into a vector.
// It returns an error if the blob length is not a multiple of 4, or if
// dim is non-negative and does not match the number of floats encoded.
func Unpack(blob []byte, dim int) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector: blob length %d is not a multiple of 4", len(blob))
	}
	n := len(blob) / 4
	if dim >= 0 && n != dim {
		return nil, fmt.Errorf("vector: blob encodes %d floats, want %d", n, dim)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

// Cosine returns the cosine similarity between a and b, in [-1, 1].
// It returns 0 if either vector has zero magnitude or the lengths
// differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
