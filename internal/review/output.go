package review

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultOutputFile is where a generated review is written between the
// review and post steps.
const DefaultOutputFile = "generated_review.json"

// Metadata records how a review run went. ChunksWithSimilarReviews == 0
// with comments present means the guideline-only fallback ran; consumers
// can tell "nothing found in memory" apart from "retrieval not attempted"
// without re-running anything.
type Metadata struct {
	TotalChunksAnalyzed      int `json:"total_chunks_analyzed"`
	ChunksWithSimilarReviews int `json:"chunks_with_similar_reviews"`
	CommentsGenerated        int `json:"comments_generated"`
	MemorySize               int `json:"memory_size"`
}

// GeneratedReview is the persisted artifact of one review run.
type GeneratedReview struct {
	PRNumber int       `json:"pr_number"`
	Comments []Comment `json:"comments"`
	Metadata Metadata  `json:"metadata"`
}

// WriteFile persists the generated review as indented JSON.
func (r *GeneratedReview) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write review file: %w", err)
	}
	return nil
}

// ReadGeneratedReview loads a previously written review artifact.
func ReadGeneratedReview(path string) (*GeneratedReview, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read review file: %w", err)
	}

	var review GeneratedReview
	if err := json.Unmarshal(data, &review); err != nil {
		return nil, fmt.Errorf("failed to parse review file: %w", err)
	}
	return &review, nil
}
