// Package review turns retrieval suggestions into review comments. It
// defines a provider-agnostic LLM interface with an OpenAI implementation
// and a deterministic mock for testing. The generator consumes suggestions
// produced by the retrieval engine, or falls back to guideline-only review
// over the raw chunks when the memory had nothing to offer.
package review

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed        = errors.New("LLM request failed")
	ErrInvalidConfig    = errors.New("invalid LLM configuration")
	ErrGenerationFailed = errors.New("review generation failed")
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces text from a prompt using the configured model.
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "gpt-4o")
	Model string

	// Temperature controls randomness (0.0 = deterministic)
	Temperature float32

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string
}

// DefaultLLMConfig returns sensible defaults for review comment generation.
// Review comments are short; the token cap keeps them that way.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "gpt-4o",
		Temperature: 0,
		MaxTokens:   300,
	}
}
