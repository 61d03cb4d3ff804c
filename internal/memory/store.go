package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Common errors for memory store operations
var (
	ErrCorruptStore      = errors.New("memory store corrupt")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// SearchStore is the contract shared by the flat file-backed store and the
// Milvus-backed store.
type SearchStore interface {
	// Insert appends a record and its embedding
	Insert(ctx context.Context, record Record) error

	// Search returns up to topK records with cosine similarity >= minSimilarity,
	// ordered by similarity descending
	Search(ctx context.Context, queryVector []float32, topK int, minSimilarity float32) ([]Candidate, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	// Close releases resources
	Close() error
}

// Store is an append-only in-memory review memory with an exact flat
// vector index. The record table and the index always hold the same number
// of entries; a store whose persisted artifacts disagree refuses to serve
// queries. Similarity ties are broken by insertion order, earlier records
// first, to favor established feedback.
type Store struct {
	dimension int
	records   []Record
	vectors   [][]float32
	corrupt   bool
}

// NewStore creates an empty store for vectors of the given dimension.
func NewStore(dimension int) *Store {
	return &Store{dimension: dimension}
}

// Dimension returns the vector dimension the store accepts.
func (s *Store) Dimension() int {
	return s.dimension
}

// Insert appends the record and adds its embedding to the index.
func (s *Store) Insert(_ context.Context, record Record) error {
	if s.corrupt {
		return fmt.Errorf("%w: refusing insert", ErrCorruptStore)
	}
	if len(record.Embedding) != s.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.dimension, len(record.Embedding))
	}

	s.records = append(s.records, record)
	s.vectors = append(s.vectors, record.Embedding)
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	if s.corrupt {
		return 0, fmt.Errorf("%w: refusing count", ErrCorruptStore)
	}
	return len(s.records), nil
}

// Len is Count without the SearchStore ceremony, for callers that hold the
// concrete store.
func (s *Store) Len() int {
	return len(s.records)
}

// Search returns up to topK records whose cosine similarity to queryVector
// is at least minSimilarity, ordered by similarity descending with ties
// broken by insertion order.
func (s *Store) Search(_ context.Context, queryVector []float32, topK int, minSimilarity float32) ([]Candidate, error) {
	if s.corrupt {
		return nil, fmt.Errorf("%w: refusing search", ErrCorruptStore)
	}
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.dimension, len(queryVector))
	}
	if topK <= 0 {
		return nil, nil
	}

	// Candidates are collected in insertion order so the stable sort
	// preserves it across equal similarities.
	candidates := make([]Candidate, 0, len(s.records))
	for i, vector := range s.vectors {
		similarity := CosineSimilarity(queryVector, vector)
		if similarity >= minSimilarity {
			candidates = append(candidates, Candidate{
				Record:     s.records[i],
				Similarity: similarity,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// in [-1, 1]. A zero vector is defined to have similarity 0 with anything.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
