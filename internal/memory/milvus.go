package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Common errors for Milvus operations
var (
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert record")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

// MilvusConfig holds configuration for the Milvus connection and collection.
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension

	// HNSW index parameters
	M              int
	EfConstruction int
}

// DefaultMilvusConfig returns default configuration from environment variables.
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "relook_reviews"
	}

	return MilvusConfig{
		Address:        address,
		CollectionName: collection,
		Dimension:      768,
		M:              16,
		EfConstruction: 256,
	}
}

// MilvusStore implements SearchStore on a Milvus collection. It is the
// backend for review memories too large for the flat index; unlike the flat
// store it does not guarantee insertion-order tie-breaks, and persistence
// consistency is Milvus's problem rather than a dual-artifact count check.
type MilvusStore struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusStore connects to Milvus and ensures the review collection
// exists with the proper schema.
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", ErrConnectionFailed, config.Dimension)
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{client: c, config: config}
	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist.
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     "record_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "code_chunk",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "review_comment",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "reviewer",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "repo",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "pr_number",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "created_at",
				DataType: entity.FieldTypeInt64, // Unix timestamp
			},
			{
				Name:     "tags",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024", // Comma-separated category labels
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.config.CollectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// Insert appends a review record to the collection.
func (m *MilvusStore) Insert(ctx context.Context, record Record) error {
	if len(record.Embedding) != m.config.Dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.config.Dimension, len(record.Embedding))
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("record_id", []string{record.ID}),
		entity.NewColumnVarChar("code_chunk", []string{record.CodeChunk}),
		entity.NewColumnVarChar("review_comment", []string{record.Comment}),
		entity.NewColumnVarChar("reviewer", []string{record.Reviewer}),
		entity.NewColumnVarChar("repo", []string{record.Source.Repo}),
		entity.NewColumnInt64("pr_number", []int64{int64(record.Source.PRNumber)}),
		entity.NewColumnInt64("created_at", []int64{record.CreatedAt.Unix()}),
		entity.NewColumnVarChar("tags", []string{strings.Join(record.Tags, ",")}),
		entity.NewColumnFloatVector("embedding", m.config.Dimension, [][]float32{record.Embedding}),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}

	return nil
}

// Search performs top-K cosine similarity search and discards results
// below minSimilarity.
func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int, minSimilarity float32) ([]Candidate, error) {
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.config.Dimension, len(queryVector))
	}

	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(queryVector)}
	outputFields := []string{"record_id", "code_chunk", "review_comment", "reviewer", "repo", "pr_number", "created_at", "tags"}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"",
		outputFields,
		vectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	if len(results) == 0 {
		return []Candidate{}, nil
	}

	candidates := make([]Candidate, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		similarity := results[0].Scores[i]
		if similarity < minSimilarity {
			continue
		}

		candidate := Candidate{Similarity: similarity}
		for _, field := range results[0].Fields {
			switch field.Name() {
			case "record_id":
				candidate.Record.ID = field.(*entity.ColumnVarChar).Data()[i]
			case "code_chunk":
				candidate.Record.CodeChunk = field.(*entity.ColumnVarChar).Data()[i]
			case "review_comment":
				candidate.Record.Comment = field.(*entity.ColumnVarChar).Data()[i]
			case "reviewer":
				candidate.Record.Reviewer = field.(*entity.ColumnVarChar).Data()[i]
			case "repo":
				candidate.Record.Source.Repo = field.(*entity.ColumnVarChar).Data()[i]
			case "pr_number":
				candidate.Record.Source.PRNumber = int(field.(*entity.ColumnInt64).Data()[i])
			case "created_at":
				candidate.Record.CreatedAt = time.Unix(field.(*entity.ColumnInt64).Data()[i], 0)
			case "tags":
				if joined := field.(*entity.ColumnVarChar).Data()[i]; joined != "" {
					candidate.Record.Tags = strings.Split(joined, ",")
				}
			}
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// Count returns the number of stored records.
func (m *MilvusStore) Count(ctx context.Context) (int, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get stats: %w", err)
	}

	count, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count %q: %w", stats["row_count"], err)
	}
	return count, nil
}

// Close releases resources and closes the Milvus connection.
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
