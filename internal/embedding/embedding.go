// Package embedding produces fixed-dimension vectors for review text. It
// defines a provider-agnostic Embedder interface with a hosted OpenAI
// implementation and a deterministic hash-based embedder used as the
// offline fallback. The Client wrapper applies the review template and owns
// the hosted-to-fallback degradation so callers never see a transient
// embedding failure.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Common errors for embedding operations
var (
	ErrMissingAPIKey   = errors.New("OPENAI_API_KEY environment variable not set")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// DefaultDimension is the vector dimension used across the memory store.
// Every embedder wired into the same store must produce this dimension or
// similarity scores are meaningless.
const DefaultDimension = 768

// Embedder defines the interface for generating a text embedding.
type Embedder interface {
	// Embed generates an embedding vector for the provided text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension
	Dimension() int
}

// Source identifies which path produced an embedding, so callers can
// distinguish degraded operation from normal operation without inspecting
// errors.
type Source string

const (
	SourceHosted   Source = "hosted"
	SourceFallback Source = "fallback"
)

// reviewTemplate joins code and context before embedding. The same template
// is applied at storage time and query time; changing it invalidates every
// stored vector.
const reviewTemplate = "Code:\n%s\n\nContext:\n%s"

// ReviewText renders the canonical embedding input for a code chunk and its
// surrounding context.
func ReviewText(code, context string) string {
	return fmt.Sprintf(reviewTemplate, code, context)
}

// Client embeds review text with a hosted embedder and degrades to a
// deterministic local embedder when the hosted call fails. Both embedders
// are injected; Client holds no global state.
type Client struct {
	hosted   Embedder
	fallback Embedder
}

// NewClient creates an embedding client. hosted may be nil, in which case
// every call takes the fallback path. fallback must not be nil.
func NewClient(hosted Embedder, fallback Embedder) (*Client, error) {
	if fallback == nil {
		return nil, fmt.Errorf("%w: fallback embedder is required", ErrEmbeddingFailed)
	}
	if hosted != nil && hosted.Dimension() != fallback.Dimension() {
		return nil, fmt.Errorf("%w: hosted dimension %d != fallback dimension %d",
			ErrEmbeddingFailed, hosted.Dimension(), fallback.Dimension())
	}
	return &Client{hosted: hosted, fallback: fallback}, nil
}

// Dimension returns the vector dimension produced by the client.
func (c *Client) Dimension() int {
	return c.fallback.Dimension()
}

// EmbedForReview embeds a code chunk with its context using the canonical
// review template. A hosted failure is absorbed: the deterministic fallback
// vector is returned together with SourceFallback so the caller knows the
// score only captures byte-level similarity.
func (c *Client) EmbedForReview(ctx context.Context, code, reviewContext string) ([]float32, Source) {
	text := ReviewText(code, reviewContext)

	if c.hosted != nil {
		vector, err := c.hosted.Embed(ctx, text)
		if err == nil {
			return vector, SourceHosted
		}
	}

	vector, _ := c.fallback.Embed(ctx, text)
	return vector, SourceFallback
}
