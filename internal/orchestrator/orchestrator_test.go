package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Yates-Labs/relook/internal/github"
	"github.com/Yates-Labs/relook/internal/memory"
	"github.com/Yates-Labs/relook/internal/review"
)

const handlerPatch = `@@ -1,3 +1,4 @@
 func handle() error {
+	log.Println("handling")
 	return nil
 }`

// testConfig points the pipeline at a temp directory and a small
// guidelines file. No hosted services are involved: embedding runs on the
// deterministic fallback and the LLM is injected per test.
func testConfig(t *testing.T) Config {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "review_rules.txt")
	if err := os.WriteFile(rulesPath, []byte("Prefer structured logging."), 0o644); err != nil {
		t.Fatalf("failed to write rules: %v", err)
	}

	config := DefaultConfig()
	config.IndexPath = filepath.Join(dir, "reviews.index")
	config.MetadataPath = filepath.Join(dir, "metadata.json")
	config.GuidelinesPath = rulesPath
	return config
}

func TestPipelineGuidelineFallback(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t)

	pipeline, err := NewPipeline(ctx, config, review.NewMockLLM("Use the logger injected at startup."))
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	defer pipeline.Close()

	files := []PatchFile{{Name: "handler.go", Patch: handlerPatch}}
	pr := PRContext{Repo: "acme/widgets", Number: 7, Title: "Add logging", Author: "bob"}

	generated, err := pipeline.RunReview(ctx, files, pr)
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}

	if generated.PRNumber != 7 {
		t.Errorf("PRNumber = %d, want 7", generated.PRNumber)
	}
	if generated.Metadata.TotalChunksAnalyzed != 1 {
		t.Errorf("TotalChunksAnalyzed = %d, want 1", generated.Metadata.TotalChunksAnalyzed)
	}
	// The memory is empty, so this run must be guideline-only.
	if generated.Metadata.ChunksWithSimilarReviews != 0 {
		t.Errorf("ChunksWithSimilarReviews = %d, want 0", generated.Metadata.ChunksWithSimilarReviews)
	}
	if len(generated.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(generated.Comments))
	}
	if len(generated.Comments[0].SimilarityInfo) != 0 {
		t.Errorf("guideline comments carry no similarity info: %+v", generated.Comments[0])
	}
	if generated.Metadata.CommentsGenerated != 1 {
		t.Errorf("CommentsGenerated = %d, want 1", generated.Metadata.CommentsGenerated)
	}
}

func TestPipelineRememberThenReview(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t)

	// The stored code context matches the hunk body the chunker will
	// produce at query time, so the deterministic embedder yields an exact
	// vector match.
	hunkBody := strings.SplitN(handlerPatch, "\n", 2)[1]
	harvested := []github.HarvestedComment{
		{
			ID:        1,
			Body:      "Avoid fmt.Println in handlers, use the logger.",
			Path:      "handler.go",
			DiffHunk:  hunkBody,
			Reviewer:  "alice",
			CreatedAt: time.Now(),
		},
		{ID: 2, Body: "no code context"}, // dropped: no diff hunk
	}

	ingest, err := NewPipeline(ctx, config, nil)
	if err != nil {
		t.Fatalf("failed to create ingest pipeline: %v", err)
	}
	stored, err := ingest.Remember(ctx, harvested, "acme/widgets", 7)
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if stored != 1 {
		t.Errorf("stored = %d, want 1", stored)
	}
	ingest.Close()

	// A fresh pipeline must load the persisted memory and, because the
	// deterministic embedder sees the same chunk text and PR context,
	// retrieve the stored review with similarity 1.
	pipeline, err := NewPipeline(ctx, config, review.NewMockLLM("Use the logger here too."))
	if err != nil {
		t.Fatalf("failed to reload pipeline: %v", err)
	}
	defer pipeline.Close()

	size, err := pipeline.MemorySize(ctx)
	if err != nil {
		t.Fatalf("memory size failed: %v", err)
	}
	if size != 1 {
		t.Fatalf("memory size = %d, want 1", size)
	}

	files := []PatchFile{{Name: "handler.go", Patch: handlerPatch}}
	pr := PRContext{Repo: "acme/widgets", Number: 7, Title: "Add logging", Author: "bob"}

	generated, err := pipeline.RunReview(ctx, files, pr)
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}

	if generated.Metadata.ChunksWithSimilarReviews != 1 {
		t.Fatalf("ChunksWithSimilarReviews = %d, want 1 (metadata: %+v)",
			generated.Metadata.ChunksWithSimilarReviews, generated.Metadata)
	}
	if len(generated.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(generated.Comments))
	}

	comment := generated.Comments[0]
	if len(comment.SimilarityInfo) != 1 {
		t.Fatalf("SimilarityInfo = %+v, want one entry", comment.SimilarityInfo)
	}
	if comment.SimilarityInfo[0].Reviewer != "alice" {
		t.Errorf("reviewer = %q, want alice", comment.SimilarityInfo[0].Reviewer)
	}
	if comment.SimilarityInfo[0].Similarity < 0.99 {
		t.Errorf("similarity = %v, want ~1 for identical text", comment.SimilarityInfo[0].Similarity)
	}
}

func TestPipelineRefusesHalfMissingMemory(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t)

	harvested := []github.HarvestedComment{
		{
			ID:        1,
			Body:      "Avoid fmt.Println in handlers, use the logger.",
			Path:      "handler.go",
			DiffHunk:  handlerPatch,
			Reviewer:  "alice",
			CreatedAt: time.Now(),
		},
	}

	ingest, err := NewPipeline(ctx, config, nil)
	if err != nil {
		t.Fatalf("failed to create ingest pipeline: %v", err)
	}
	if _, err := ingest.Remember(ctx, harvested, "acme/widgets", 7); err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	ingest.Close()

	// Losing one artifact of the pair must abort startup, not silently
	// restart with an empty memory over the surviving index.
	if err := os.Remove(config.MetadataPath); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := NewPipeline(ctx, config, nil); !errors.Is(err, memory.ErrCorruptStore) {
		t.Fatalf("error = %v, want ErrCorruptStore", err)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	config := testConfig(t)
	config.Backend = "chalkboard"
	if _, err := NewPipeline(context.Background(), config, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}
