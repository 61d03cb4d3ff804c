// Package memory stores past review records alongside their embedding
// vectors and serves cosine-similarity searches over them. The canonical
// implementation is an append-only flat index persisted as two artifacts, a
// vector blob and a JSON metadata table, which must always agree on record
// count. A Milvus-backed implementation of the same search contract is
// available for large memories.
package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SourceContext identifies where a review record came from.
type SourceContext struct {
	Repo     string   `json:"repo"`
	PRNumber int      `json:"pr_number"`
	Files    []string `json:"files,omitempty"`
}

// Record is one past review unit: the code that was reviewed, the comment a
// reviewer left on it, and the embedding used to find it again. Records are
// append-only; they are never mutated or deleted once stored.
//
// The embedding is excluded from JSON because it lives in the vector index
// blob, not the metadata table.
type Record struct {
	ID        string        `json:"id"`
	Source    SourceContext `json:"pr_info"`
	CodeChunk string        `json:"code_chunk"`
	Comment   string        `json:"review_comment"`
	Reviewer  string        `json:"reviewer"`
	CreatedAt time.Time     `json:"timestamp"`
	Tags      []string      `json:"tags"`
	Embedding []float32     `json:"-"`
}

// Candidate pairs a record with its similarity to a query vector. Created
// per search, never persisted.
type Candidate struct {
	Record     Record
	Similarity float32
}

// NewRecord builds a review record with a content-derived ID. Passing nil
// tags extracts them from the comment text.
func NewRecord(codeChunk, comment string, source SourceContext, reviewer string, embedding []float32, tags []string) Record {
	if tags == nil {
		tags = ExtractTags(comment)
	}
	return Record{
		ID:        recordID(codeChunk, comment, source.PRNumber),
		Source:    source,
		CodeChunk: codeChunk,
		Comment:   comment,
		Reviewer:  reviewer,
		CreatedAt: time.Now().UTC(),
		Tags:      tags,
		Embedding: embedding,
	}
}

// recordID derives a stable identifier from the record content, so the same
// review stored twice collides instead of duplicating.
func recordID(codeChunk, comment string, prNumber int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%s%d", codeChunk, comment, prNumber)))
	return hex.EncodeToString(sum[:])[:16]
}
