// Package retrieval matches review chunks against the review memory. For
// each chunk it builds the canonical query text, embeds it, and searches
// the store with a similarity threshold derived from how much memory has
// accumulated: a sparse memory gets a lenient bar so some feedback
// surfaces at all, a mature one can afford precision over recall.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Yates-Labs/relook/internal/diff"
	"github.com/Yates-Labs/relook/internal/embedding"
	"github.com/Yates-Labs/relook/internal/memory"
)

// TopK is the number of candidate past reviews retrieved per chunk.
const TopK = 3

// defaultWorkers bounds concurrent embedding and search calls per
// FindSimilar invocation.
const defaultWorkers = 4

// snippetPreviewLen truncates the matched record's code in a suggestion.
const snippetPreviewLen = 200

// PRInfo carries the change-set identity used to build query context.
type PRInfo struct {
	Repo   string
	Number int
}

// QueryContext renders the context string for query-time embedding. It must
// stay identical to the storage-time context format or similarity scores
// become incomparable.
func (p PRInfo) QueryContext() string {
	repo := p.Repo
	if repo == "" {
		repo = "unknown"
	}
	number := "unknown"
	if p.Number > 0 {
		number = fmt.Sprintf("%d", p.Number)
	}
	return fmt.Sprintf("PR #%s in %s", number, repo)
}

// SimilarReview is one retrieved past review attached to a suggestion.
type SimilarReview struct {
	Similarity   float32  `json:"similarity"`
	Comment      string   `json:"comment"`
	Reviewer     string   `json:"reviewer"`
	Tags         []string `json:"tags"`
	OriginalCode string   `json:"original_code"`
}

// Suggestion pairs a chunk with the past reviews similar enough to inform
// a new comment on it.
type Suggestion struct {
	File            string           `json:"file"`
	HunkHeader      string           `json:"hunk_header"`
	CodeChunk       string           `json:"code_chunk"`
	EmbeddingSource embedding.Source `json:"embedding_source"`
	SimilarReviews  []SimilarReview  `json:"similar_reviews"`
}

// AdaptiveThreshold picks the minimum similarity as a function of memory
// size rather than a per-call tunable.
func AdaptiveThreshold(memorySize int) float32 {
	switch {
	case memorySize <= 5:
		return 0.2
	case memorySize <= 10:
		return 0.3
	default:
		return 0.4
	}
}

// Engine runs similarity retrieval for review chunks. All collaborators
// are injected; the engine holds no global state.
type Engine struct {
	embedder *embedding.Client
	store    memory.SearchStore
	workers  int
}

// NewEngine creates a retrieval engine.
func NewEngine(embedder *embedding.Client, store memory.SearchStore) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedding client cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("memory store cannot be nil")
	}
	return &Engine{
		embedder: embedder,
		store:    store,
		workers:  defaultWorkers,
	}, nil
}

// FindSimilar returns one suggestion per chunk that has at least one past
// review above the adaptive threshold. Chunks with no match are dropped
// silently; absence of similar history is a normal outcome, not a failure.
// Context-only chunks are skipped without querying.
//
// Chunks fan out over a bounded worker pool, but the result order is always
// the input chunk order, never completion order.
func (e *Engine) FindSimilar(ctx context.Context, chunks []diff.ReviewChunk, pr PRInfo) ([]Suggestion, error) {
	memorySize, err := e.store.Count(ctx)
	if err != nil {
		// A store that cannot report its size is not safe to query; a
		// corrupt index would silently pair queries with wrong records.
		return nil, fmt.Errorf("retrieval aborted: %w", err)
	}

	threshold := AdaptiveThreshold(memorySize)
	log.Printf("[retrieval] using similarity threshold %.1f (memory size: %d)", threshold, memorySize)

	results := make([]*Suggestion, len(chunks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for i, chunk := range chunks {
		if !chunk.HasChanges() {
			continue
		}

		wg.Add(1)
		go func(i int, chunk diff.ReviewChunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = e.suggestForChunk(ctx, chunk, pr, threshold)
		}(i, chunk)
	}
	wg.Wait()

	suggestions := make([]Suggestion, 0, len(chunks))
	for _, result := range results {
		if result != nil {
			suggestions = append(suggestions, *result)
		}
	}
	return suggestions, nil
}

// suggestForChunk embeds one chunk and searches the memory. A search
// failure skips the chunk rather than aborting the run.
func (e *Engine) suggestForChunk(ctx context.Context, chunk diff.ReviewChunk, pr PRInfo, threshold float32) *Suggestion {
	vector, source := e.embedder.EmbedForReview(ctx, chunk.Text, pr.QueryContext())

	candidates, err := e.store.Search(ctx, vector, TopK, threshold)
	if err != nil {
		log.Printf("[retrieval] skipping chunk in %s: search failed: %v", chunk.Filename, err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	suggestion := &Suggestion{
		File:            chunk.Filename,
		HunkHeader:      chunk.HunkHeader,
		CodeChunk:       chunk.Text,
		EmbeddingSource: source,
		SimilarReviews:  make([]SimilarReview, 0, len(candidates)),
	}
	for _, candidate := range candidates {
		suggestion.SimilarReviews = append(suggestion.SimilarReviews, SimilarReview{
			Similarity:   candidate.Similarity,
			Comment:      candidate.Record.Comment,
			Reviewer:     candidate.Record.Reviewer,
			Tags:         candidate.Record.Tags,
			OriginalCode: truncate(candidate.Record.CodeChunk, snippetPreviewLen),
		})
	}
	return suggestion
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
