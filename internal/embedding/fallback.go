package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Deterministic is an offline embedder that derives a vector from a
// SHA-256 digest of the text. The same text always yields the same vector,
// so the memory store stays queryable without network access. Scores
// computed against these vectors only capture byte-level text similarity,
// not semantics.
type Deterministic struct {
	dimension int
}

// NewDeterministic creates a deterministic embedder with the given
// dimension. dimension <= 0 falls back to DefaultDimension.
func NewDeterministic(dimension int) *Deterministic {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Deterministic{dimension: dimension}
}

// Dimension returns the embedding vector dimension.
func (d *Deterministic) Dimension() int {
	return d.dimension
}

// Embed hashes the text and expands the digest into a vector: each disjoint
// 4-byte big-endian group becomes an unsigned integer rescaled to
// [-0.5, 0.5], the result is zero-padded to the configured dimension and
// L2-normalized. A zero-norm vector is left unnormalized. Never fails.
func (d *Deterministic) Embed(_ context.Context, text string) ([]float32, error) {
	digest := sha256.Sum256([]byte(text))

	vector := make([]float32, d.dimension)
	groups := len(digest) / 4
	if groups > d.dimension {
		groups = d.dimension
	}
	for i := 0; i < groups; i++ {
		value := binary.BigEndian.Uint32(digest[i*4 : i*4+4])
		vector[i] = float32(float64(value)/float64(1<<32) - 0.5)
	}

	normalize(vector)
	return vector, nil
}

// normalize scales the vector to unit length in place. Zero vectors are
// left untouched.
func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
}
