package review

import (
	"fmt"
	"strings"
)

// FormatBody renders the comment body for posting, appending a provenance
// footer when the comment was informed by past reviews.
func FormatBody(c Comment) string {
	if len(c.SimilarityInfo) == 0 {
		return c.Body
	}

	top := c.SimilarityInfo[0].Similarity
	for _, info := range c.SimilarityInfo[1:] {
		if info.Similarity > top {
			top = info.Similarity
		}
	}

	reviewers := uniqueReviewers(c.SimilarityInfo)
	reviewerText := fmt.Sprintf("%d reviewer(s)", len(reviewers))
	if len(reviewers) == 1 {
		reviewerText = "@" + reviewers[0]
	}

	var b strings.Builder
	b.WriteString(c.Body)
	b.WriteString("\n\n---\n")
	b.WriteString(fmt.Sprintf("*This suggestion is based on %d similar past review(s) by %s (similarity: %.0f%%)*",
		len(c.SimilarityInfo), reviewerText, top*100))

	if tags := collectTags(c.SimilarityInfo, 3); len(tags) > 0 {
		b.WriteString(fmt.Sprintf("\n*Related areas: %s*", strings.Join(tags, ", ")))
	}

	return b.String()
}

// BuildSummary renders the overview comment posted alongside inline
// comments when a review produced more than one of them.
func BuildSummary(review *GeneratedReview, posted int) string {
	m := review.Metadata

	var b strings.Builder
	b.WriteString("## Auto-Review Summary\n\n")
	b.WriteString(fmt.Sprintf("Analyzed this PR using **%d past reviews** from the team's memory and posted **%d suggestions** based on similar code patterns.\n\n", m.MemorySize, posted))
	b.WriteString("### Analysis Results:\n")
	b.WriteString(fmt.Sprintf("- **Code chunks analyzed:** %d\n", m.TotalChunksAnalyzed))
	b.WriteString(fmt.Sprintf("- **Chunks with similar past reviews:** %d\n", m.ChunksWithSimilarReviews))
	b.WriteString(fmt.Sprintf("- **Review comments generated:** %d\n", m.CommentsGenerated))
	b.WriteString(fmt.Sprintf("- **Comments successfully posted:** %d\n\n", posted))
	if m.ChunksWithSimilarReviews == 0 {
		b.WriteString("No similar past reviews matched this change, so the suggestions above come from the review guidelines alone.\n")
	} else {
		b.WriteString("The suggestions above come from patterns in previous code reviews. Review them critically; they supplement human review rather than replace it.\n")
	}

	return b.String()
}

func uniqueReviewers(info []SimilarityInfo) []string {
	seen := make(map[string]bool)
	var reviewers []string
	for _, i := range info {
		if i.Reviewer == "" || seen[i.Reviewer] {
			continue
		}
		seen[i.Reviewer] = true
		reviewers = append(reviewers, i.Reviewer)
	}
	return reviewers
}

func collectTags(info []SimilarityInfo, max int) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, i := range info {
		for _, tag := range i.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
			if len(tags) == max {
				return tags
			}
		}
	}
	return tags
}
