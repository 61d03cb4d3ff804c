package memory

import "strings"

// tagKeywords maps a category label to the comment keywords that imply it.
var tagKeywords = map[string][]string{
	"security":      {"security", "vulnerable", "injection", "xss", "csrf"},
	"performance":   {"performance", "slow", "optimize", "memory", "cpu"},
	"style":         {"style", "format", "naming", "convention"},
	"architecture":  {"architecture", "design", "pattern", "structure"},
	"testing":       {"test", "coverage", "mock", "assertion"},
	"documentation": {"document", "comment", "javadoc", "readme"},
}

// tagOrder keeps extraction output deterministic.
var tagOrder = []string{"security", "performance", "style", "architecture", "testing", "documentation"}

// ExtractTags derives category labels from a review comment. Comments that
// match no category are tagged "general".
func ExtractTags(comment string) []string {
	lower := strings.ToLower(comment)

	var tags []string
	for _, tag := range tagOrder {
		for _, keyword := range tagKeywords[tag] {
			if strings.Contains(lower, keyword) {
				tags = append(tags, tag)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []string{"general"}
	}
	return tags
}
