package memory

import (
	"context"
	"testing"
)

// TestDefaultMilvusConfig tests default configuration
func TestDefaultMilvusConfig(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_COLLECTION", "")

	config := DefaultMilvusConfig()

	if config.Address != "localhost:19530" {
		t.Errorf("Address = %q, want localhost:19530", config.Address)
	}
	if config.CollectionName != "relook_reviews" {
		t.Errorf("CollectionName = %q, want relook_reviews", config.CollectionName)
	}
	if config.Dimension != 768 {
		t.Errorf("Dimension = %d, want 768", config.Dimension)
	}
	if config.M != 16 || config.EfConstruction != 256 {
		t.Errorf("HNSW params = %d,%d, want 16,256", config.M, config.EfConstruction)
	}

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MILVUS_ADDRESS", "milvus.internal:19530")
		t.Setenv("MILVUS_COLLECTION", "custom_reviews")

		config := DefaultMilvusConfig()
		if config.Address != "milvus.internal:19530" {
			t.Errorf("Address = %q", config.Address)
		}
		if config.CollectionName != "custom_reviews" {
			t.Errorf("CollectionName = %q", config.CollectionName)
		}
	})
}

func TestNewMilvusStoreValidation(t *testing.T) {
	_, err := NewMilvusStore(context.Background(), MilvusConfig{Dimension: 0})
	if err == nil {
		t.Error("expected error for non-positive dimension")
	}
}

// Integration test: Insert, Search, Count full workflow against a running
// Milvus instance.
func TestMilvusStore_Integration_FullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	config := DefaultMilvusConfig()
	config.Dimension = 8
	config.CollectionName = "relook_test_integration"

	store, err := NewMilvusStore(ctx, config)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	record := testRecord("milvus-a", []float32{1, 0, 0, 0, 0, 0, 0, 0})
	if err := store.Insert(ctx, record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count < 1 {
		t.Errorf("count = %d, want at least 1", count)
	}

	candidates, err := store.Search(ctx, []float32{1, 0, 0, 0, 0, 0, 0, 0}, 3, 0.5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if candidates[0].Record.Reviewer != "alice" {
		t.Errorf("reviewer = %q, want alice", candidates[0].Record.Reviewer)
	}
}
