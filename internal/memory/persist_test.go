package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "reviews.index")
	metaPath := filepath.Join(dir, "metadata.json")

	store := NewStore(3)
	store.Insert(ctx, testRecord("a", []float32{1, 0, 0}))
	store.Insert(ctx, testRecord("b", []float32{0, 1, 0}))

	if err := store.SaveToFiles(indexPath, metaPath); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := NewStore(3)
	if err := loaded.LoadFromFiles(indexPath, metaPath); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d records, want 2", loaded.Len())
	}

	// Embeddings must be reattached so searches work after a reload.
	candidates, err := loaded.Search(ctx, []float32{1, 0, 0}, 1, 0.5)
	if err != nil {
		t.Fatalf("search after load failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Record.ID != "a" {
		t.Errorf("candidates = %v", candidates)
	}
	if candidates[0].Record.Reviewer != "alice" {
		t.Errorf("metadata lost on reload: %+v", candidates[0].Record)
	}
}

func TestLoadCorruption(t *testing.T) {
	ctx := context.Background()

	t.Run("count mismatch marks the store corrupt", func(t *testing.T) {
		dir := t.TempDir()

		two := NewStore(3)
		two.Insert(ctx, testRecord("a", []float32{1, 0, 0}))
		two.Insert(ctx, testRecord("b", []float32{0, 1, 0}))
		if err := two.SaveToFiles(filepath.Join(dir, "two.index"), filepath.Join(dir, "two.json")); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		one := NewStore(3)
		one.Insert(ctx, testRecord("a", []float32{1, 0, 0}))
		if err := one.SaveToFiles(filepath.Join(dir, "one.index"), filepath.Join(dir, "one.json")); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		// Two vectors in the index, one record in the table.
		store := NewStore(3)
		err := store.LoadFromFiles(filepath.Join(dir, "two.index"), filepath.Join(dir, "one.json"))
		if !errors.Is(err, ErrCorruptStore) {
			t.Fatalf("error = %v, want ErrCorruptStore", err)
		}

		// Every subsequent operation must refuse to serve.
		if _, err := store.Count(ctx); !errors.Is(err, ErrCorruptStore) {
			t.Errorf("Count error = %v, want ErrCorruptStore", err)
		}
		if _, err := store.Search(ctx, []float32{1, 0, 0}, 1, 0); !errors.Is(err, ErrCorruptStore) {
			t.Errorf("Search error = %v, want ErrCorruptStore", err)
		}
		if err := store.Insert(ctx, testRecord("c", []float32{0, 0, 1})); !errors.Is(err, ErrCorruptStore) {
			t.Errorf("Insert error = %v, want ErrCorruptStore", err)
		}
		if err := store.SaveToFiles(filepath.Join(dir, "out.index"), filepath.Join(dir, "out.json")); !errors.Is(err, ErrCorruptStore) {
			t.Errorf("Save error = %v, want ErrCorruptStore", err)
		}
	})

	t.Run("garbage index blob", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "bad.index")
		metaPath := filepath.Join(dir, "meta.json")
		os.WriteFile(indexPath, []byte("not an index"), 0o644)
		os.WriteFile(metaPath, []byte("[]"), 0o644)

		store := NewStore(3)
		if err := store.LoadFromFiles(indexPath, metaPath); err == nil {
			t.Fatal("expected error for garbage index")
		}
		if _, err := store.Count(ctx); !errors.Is(err, ErrCorruptStore) {
			t.Errorf("Count error = %v, want ErrCorruptStore", err)
		}
	})

	t.Run("one surviving artifact is corruption", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "reviews.index")
		metaPath := filepath.Join(dir, "metadata.json")

		store := NewStore(3)
		store.Insert(ctx, testRecord("a", []float32{1, 0, 0}))
		if err := store.SaveToFiles(indexPath, metaPath); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := os.Remove(metaPath); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		reloaded := NewStore(3)
		err := reloaded.LoadFromFiles(indexPath, metaPath)
		if !errors.Is(err, ErrCorruptStore) {
			t.Fatalf("error = %v, want ErrCorruptStore", err)
		}
		if errors.Is(err, os.ErrNotExist) {
			t.Error("a half-missing pair must not look like a fresh start")
		}
		// The surviving index must not be clobbered by a later save.
		if err := reloaded.SaveToFiles(indexPath, metaPath); !errors.Is(err, ErrCorruptStore) {
			t.Errorf("Save error = %v, want ErrCorruptStore", err)
		}
	})

	t.Run("metadata without an index is corruption", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "reviews.index")
		metaPath := filepath.Join(dir, "metadata.json")
		os.WriteFile(metaPath, []byte("[]"), 0o644)

		store := NewStore(3)
		if err := store.LoadFromFiles(indexPath, metaPath); !errors.Is(err, ErrCorruptStore) {
			t.Fatalf("error = %v, want ErrCorruptStore", err)
		}
	})

	t.Run("missing files are not corruption", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(3)
		err := store.LoadFromFiles(filepath.Join(dir, "none.index"), filepath.Join(dir, "none.json"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("error = %v, want os.ErrNotExist", err)
		}
		// A store that simply has no artifacts yet still works.
		if err := store.Insert(ctx, testRecord("a", []float32{1, 0, 0})); err != nil {
			t.Errorf("insert after missing-file load failed: %v", err)
		}
	})
}
