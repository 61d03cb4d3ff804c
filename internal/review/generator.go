package review

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Yates-Labs/relook/internal/diff"
	"github.com/Yates-Labs/relook/internal/retrieval"
)

// SimilarityInfo summarizes one past review that informed a comment. It is
// persisted with the comment so consumers can see where feedback came from.
type SimilarityInfo struct {
	Similarity float32  `json:"similarity"`
	Reviewer   string   `json:"reviewer"`
	Tags       []string `json:"tags"`
}

// Comment is a generated review comment anchored to an output-side source
// line. The line is semantic; mapping it to a diff position happens at
// posting time.
type Comment struct {
	File           string           `json:"file"`
	Line           int              `json:"line"`
	Body           string           `json:"comment"`
	SimilarityInfo []SimilarityInfo `json:"similarity_info"`
}

// Generator produces review comments from suggestions or, when memory had
// nothing, from guidelines alone.
type Generator struct {
	llm        LLM
	config     LLMConfig
	guidelines string
}

// NewGenerator creates a comment generator. guidelines may be empty, which
// disables the guideline-only fallback.
func NewGenerator(llm LLM, config LLMConfig, guidelines string) *Generator {
	return &Generator{
		llm:        llm,
		config:     config,
		guidelines: guidelines,
	}
}

// LoadGuidelines reads the review rules file. A missing file is not an
// error; it returns empty guidelines.
func LoadGuidelines(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// FromSuggestions generates one comment per suggestion. A failed LLM call
// skips the suggestion and the run continues; a NoReviewNeeded response
// drops the suggestion silently.
func (g *Generator) FromSuggestions(ctx context.Context, suggestions []retrieval.Suggestion, pr PRMeta) ([]Comment, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}

	comments := make([]Comment, 0, len(suggestions))
	for _, suggestion := range suggestions {
		prompt := BuildMemoryPrompt(suggestion, pr)

		text, err := g.llm.Generate(ctx, prompt)
		if err != nil {
			log.Printf("[review] skipping suggestion for %s: %v", suggestion.File, err)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" || text == NoReviewNeeded {
			continue
		}

		if g.guidelines != "" {
			text = text + guidelineFooter(g.guidelines)
		}

		info := make([]SimilarityInfo, 0, len(suggestion.SimilarReviews))
		for _, sr := range suggestion.SimilarReviews {
			info = append(info, SimilarityInfo{
				Similarity: sr.Similarity,
				Reviewer:   sr.Reviewer,
				Tags:       sr.Tags,
			})
		}

		comments = append(comments, Comment{
			File:           suggestion.File,
			Line:           lineFromHunkHeader(suggestion.HunkHeader),
			Body:           text,
			SimilarityInfo: info,
		})
	}

	return comments, nil
}

// FromGuidelines generates a guideline-only comment for every chunk that
// contains changes. Used when retrieval produced no suggestions, so the
// system does not go silent. Returns nil when no guidelines are configured.
func (g *Generator) FromGuidelines(ctx context.Context, chunks []diff.ReviewChunk) ([]Comment, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}
	if g.guidelines == "" {
		log.Printf("[review] no guidelines configured; skipping rule-based fallback")
		return nil, nil
	}

	comments := make([]Comment, 0, len(chunks))
	for _, chunk := range chunks {
		if !chunk.HasChanges() {
			continue
		}

		text, err := g.llm.Generate(ctx, BuildGuidelinePrompt(chunk.Text, g.guidelines))
		if err != nil {
			log.Printf("[review] skipping chunk in %s: %v", chunk.Filename, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		comments = append(comments, Comment{
			File:           chunk.Filename,
			Line:           lineFromHunkHeader(chunk.HunkHeader),
			Body:           text,
			SimilarityInfo: []SimilarityInfo{},
		})
	}

	return comments, nil
}

// lineFromHunkHeader anchors a comment at the hunk's output-side start
// line, defaulting to 1 when the header cannot be parsed.
func lineFromHunkHeader(header string) int {
	parsed, err := diff.ParseHunkHeader(header)
	if err != nil {
		return 1
	}
	return parsed.NewStart
}

func guidelineFooter(guidelines string) string {
	return "\n\n---\n*Review context:*\n" + guidelines
}
