package review

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/relook/internal/retrieval"
)

// NoReviewNeeded is the sentinel the model returns when the retrieved
// history does not apply to the current code.
const NoReviewNeeded = "NO_REVIEW_NEEDED"

// PRMeta carries pull-request fields used in prompts.
type PRMeta struct {
	Title  string
	Number int
	Author string
}

// BuildMemoryPrompt assembles the prompt for generating a comment from a
// suggestion and its similar past reviews.
func BuildMemoryPrompt(suggestion retrieval.Suggestion, pr PRMeta) string {
	var b strings.Builder

	b.WriteString("You are a code reviewer analyzing a pull request. ")
	b.WriteString("Based on similar past reviews, provide a helpful review comment for the following code change.\n\n")

	b.WriteString("PR Information:\n")
	b.WriteString(fmt.Sprintf("- Title: %s\n", orNA(pr.Title)))
	b.WriteString(fmt.Sprintf("- File: %s\n\n", suggestion.File))

	b.WriteString("Current Code Change:\n")
	b.WriteString(suggestion.CodeChunk)
	b.WriteString("\n\n")

	b.WriteString("Similar Past Reviews Found:\n")
	for _, sr := range suggestion.SimilarReviews {
		b.WriteString(fmt.Sprintf("\nPast Review (similarity: %.2f):\n", sr.Similarity))
		b.WriteString(fmt.Sprintf("Reviewer: %s\n", sr.Reviewer))
		b.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(sr.Tags, ", ")))
		b.WriteString(fmt.Sprintf("Comment: %s\n", sr.Comment))
		b.WriteString(fmt.Sprintf("Original code context: %s\n", sr.OriginalCode))
		b.WriteString("---\n")
	}

	b.WriteString("\nBased on these similar past reviews, generate a concise, helpful review comment for the current code change. Focus on:\n")
	b.WriteString("1. Specific issues that might apply to this code\n")
	b.WriteString("2. Best practices from past reviews\n")
	b.WriteString("3. Consistency with previous feedback patterns\n\n")
	b.WriteString("If the similar reviews don't apply well to the current code, indicate that no review is needed.\n\n")
	b.WriteString(fmt.Sprintf("Response format: Provide only the review comment text, or %q if not applicable.", NoReviewNeeded))

	return b.String()
}

// BuildGuidelinePrompt assembles the rule-based fallback prompt used when
// the memory produced no suggestions.
func BuildGuidelinePrompt(codeChunk, guidelines string) string {
	var b strings.Builder

	b.WriteString("You are a code reviewer.\n")
	b.WriteString("Review the following code according to these guidelines:\n\n")
	b.WriteString(guidelines)
	b.WriteString("\n\nCode to review:\n")
	b.WriteString(codeChunk)
	b.WriteString("\n\nList any issues found, referencing the guidelines. If everything is OK, say so.\n")

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
