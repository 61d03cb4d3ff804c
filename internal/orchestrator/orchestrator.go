// Package orchestrator wires the review pipeline end to end: diff
// chunking, memory retrieval, comment generation, and memory ingestion.
// Collaborators are constructed here and injected downward; core packages
// never read the environment themselves.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Yates-Labs/relook/internal/diff"
	"github.com/Yates-Labs/relook/internal/embedding"
	"github.com/Yates-Labs/relook/internal/github"
	"github.com/Yates-Labs/relook/internal/memory"
	"github.com/Yates-Labs/relook/internal/retrieval"
	"github.com/Yates-Labs/relook/internal/review"
)

// Memory backend selection.
const (
	BackendFlat   = "flat"
	BackendMilvus = "milvus"
)

// Config holds configuration for the review pipeline.
type Config struct {
	// Backend selects the memory store: BackendFlat or BackendMilvus.
	Backend string

	// IndexPath is the flat store's vector index blob.
	IndexPath string

	// MetadataPath is the flat store's JSON record table.
	MetadataPath string

	// GuidelinesPath points at the review rules file used for the
	// guideline-only fallback and comment footers.
	GuidelinesPath string

	// EmbedderModel is the hosted embedding model.
	EmbedderModel string

	// EmbedderDimension is the vector dimension for embeddings.
	EmbedderDimension int

	// MaxChunkLines is the chunker's split size.
	MaxChunkLines int

	// LLMConfig holds the LLM configuration for comment generation.
	LLMConfig review.LLMConfig

	// MilvusConfig holds the Milvus store configuration, used only when
	// Backend is BackendMilvus.
	MilvusConfig memory.MilvusConfig
}

// DefaultConfig returns sensible defaults for the review pipeline.
func DefaultConfig() Config {
	return Config{
		Backend:           BackendFlat,
		IndexPath:         "memory_data/reviews.index",
		MetadataPath:      "memory_data/metadata.json",
		GuidelinesPath:    "review_rules.txt",
		EmbedderModel:     embedding.DefaultModel,
		EmbedderDimension: embedding.DefaultDimension,
		MaxChunkLines:     diff.DefaultMaxChunkLines,
		LLMConfig:         review.DefaultLLMConfig(),
		MilvusConfig:      memory.DefaultMilvusConfig(),
	}
}

// PRContext identifies the change set under review.
type PRContext struct {
	Repo   string
	Number int
	Title  string
	Author string
}

// PatchFile is one changed file's unified patch, regardless of whether it
// came from the hosting API or a local repository.
type PatchFile struct {
	Name  string
	Patch string
}

// Pipeline orchestrates review generation and memory ingestion.
type Pipeline struct {
	config    Config
	embedder  *embedding.Client
	store     memory.SearchStore
	flat      *memory.Store
	engine    *retrieval.Engine
	generator *review.Generator
}

// NewPipeline creates a review pipeline. llm may be nil for flows that
// never generate comments, such as memory ingestion. A missing hosted
// embedder key degrades to the deterministic fallback rather than failing.
func NewPipeline(ctx context.Context, config Config, llm review.LLM) (*Pipeline, error) {
	fallback := embedding.NewDeterministic(config.EmbedderDimension)

	var hosted embedding.Embedder
	if openAI, err := embedding.NewOpenAIEmbedder(config.EmbedderModel, config.EmbedderDimension); err != nil {
		log.Printf("[pipeline] hosted embedder unavailable, running on deterministic fallback: %v", err)
	} else {
		hosted = openAI
	}

	embedder, err := embedding.NewClient(hosted, fallback)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	store, flat, err := openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	engine, err := retrieval.NewEngine(embedder, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval engine: %w", err)
	}

	guidelines := review.LoadGuidelines(config.GuidelinesPath)
	generator := review.NewGenerator(llm, config.LLMConfig, guidelines)

	return &Pipeline{
		config:    config,
		embedder:  embedder,
		store:     store,
		flat:      flat,
		engine:    engine,
		generator: generator,
	}, nil
}

// openStore builds the configured memory backend. The flat store starts
// empty when its artifacts do not exist yet; any other load failure,
// including a count mismatch between the two artifacts, is fatal.
func openStore(ctx context.Context, config Config) (memory.SearchStore, *memory.Store, error) {
	switch config.Backend {
	case BackendMilvus:
		store, err := memory.NewMilvusStore(ctx, config.MilvusConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create milvus store: %w", err)
		}
		return store, nil, nil

	case BackendFlat, "":
		store := memory.NewStore(config.EmbedderDimension)
		err := store.LoadFromFiles(config.IndexPath, config.MetadataPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Printf("[pipeline] no existing memory at %s, starting empty", config.IndexPath)
				return store, store, nil
			}
			return nil, nil, fmt.Errorf("failed to load memory: %w", err)
		}
		log.Printf("[pipeline] loaded %d review records from %s", store.Len(), config.IndexPath)
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown memory backend %q", config.Backend)
	}
}

// Close releases resources held by the pipeline.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// MemorySize returns the number of stored review records.
func (p *Pipeline) MemorySize(ctx context.Context) (int, error) {
	return p.store.Count(ctx)
}

// RunReview analyzes the given patches against the review memory and
// generates comments. When no chunk has a similar past review, generation
// falls back to guideline-only comments over the same chunks; the
// metadata's ChunksWithSimilarReviews stays 0 so consumers can tell the
// two modes apart.
func (p *Pipeline) RunReview(ctx context.Context, files []PatchFile, pr PRContext) (*review.GeneratedReview, error) {
	var chunks []diff.ReviewChunk
	for _, file := range files {
		chunks = append(chunks, diff.Chunk(file.Patch, file.Name, p.config.MaxChunkLines)...)
	}
	log.Printf("[pipeline] analyzing %d chunks across %d files for PR #%d", len(chunks), len(files), pr.Number)

	suggestions, err := p.engine.FindSimilar(ctx, chunks, retrieval.PRInfo{Repo: pr.Repo, Number: pr.Number})
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	meta := review.PRMeta{Title: pr.Title, Number: pr.Number, Author: pr.Author}

	var comments []review.Comment
	if len(suggestions) > 0 {
		log.Printf("[pipeline] %d chunks have similar past reviews", len(suggestions))
		comments, err = p.generator.FromSuggestions(ctx, suggestions, meta)
	} else {
		log.Printf("[pipeline] no similar past reviews found, falling back to guidelines")
		comments, err = p.generator.FromGuidelines(ctx, chunks)
	}
	if err != nil {
		return nil, fmt.Errorf("comment generation failed: %w", err)
	}
	if comments == nil {
		comments = []review.Comment{}
	}

	memorySize, err := p.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory size: %w", err)
	}

	return &review.GeneratedReview{
		PRNumber: pr.Number,
		Comments: comments,
		Metadata: review.Metadata{
			TotalChunksAnalyzed:      len(chunks),
			ChunksWithSimilarReviews: len(suggestions),
			CommentsGenerated:        len(comments),
			MemorySize:               memorySize,
		},
	}, nil
}

// Remember ingests harvested review comments into the memory, embedding
// each comment's code context with the canonical review template. Records
// are appended; the flat store is persisted after ingestion. Returns the
// number of records stored.
func (p *Pipeline) Remember(ctx context.Context, comments []github.HarvestedComment, repo string, prNumber int) (int, error) {
	queryContext := retrieval.PRInfo{Repo: repo, Number: prNumber}.QueryContext()

	stored := 0
	fallbacks := 0
	for _, comment := range comments {
		if comment.DiffHunk == "" || comment.Body == "" {
			continue
		}

		vector, source := p.embedder.EmbedForReview(ctx, comment.DiffHunk, queryContext)
		if source == embedding.SourceFallback {
			fallbacks++
		}

		record := memory.NewRecord(
			comment.DiffHunk,
			comment.Body,
			memory.SourceContext{Repo: repo, PRNumber: prNumber, Files: []string{comment.Path}},
			comment.Reviewer,
			vector,
			nil,
		)
		if err := p.store.Insert(ctx, record); err != nil {
			return stored, fmt.Errorf("failed to store record %s: %w", record.ID, err)
		}
		stored++
	}

	if fallbacks > 0 {
		log.Printf("[pipeline] %d of %d records embedded via deterministic fallback", fallbacks, stored)
	}

	if p.flat != nil && stored > 0 {
		if err := p.flat.SaveToFiles(p.config.IndexPath, p.config.MetadataPath); err != nil {
			return stored, fmt.Errorf("failed to persist memory: %w", err)
		}
	}

	log.Printf("[pipeline] stored %d review records from PR #%d", stored, prNumber)
	return stored, nil
}

// SaveMemory persists the flat store's artifacts. A no-op for backends
// that persist on insert.
func (p *Pipeline) SaveMemory() error {
	if p.flat == nil {
		return nil
	}
	return p.flat.SaveToFiles(p.config.IndexPath, p.config.MetadataPath)
}
