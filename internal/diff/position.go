package diff

import (
	"log"
	"strings"
)

// ResolvePosition maps a 1-based output-side line number to the diff
// position the review-comment API expects: positions count body lines from
// the first line below a hunk header, which is position 1. Hunk headers
// reset the output-side line counter but do not occupy a position.
//
// The boolean result is false when targetLine does not correspond to an
// addition in the patch — a deleted line, a line outside every hunk, or an
// empty patch. Callers must treat that as "cannot anchor inline" and fall
// back to a file-level comment, never invent a position.
func ResolvePosition(patch string, targetLine int) (int, bool) {
	if patch == "" || targetLine <= 0 {
		return 0, false
	}

	position := 0
	currentLine := 0

	for _, line := range strings.Split(patch, "\n") {
		if IsHunkHeader(line) {
			header, err := ParseHunkHeader(line)
			if err != nil {
				// Keep scanning; later hunks may still match.
				log.Printf("[diff] skipping unparseable hunk header: %v", err)
				continue
			}
			// The next addition or context line represents NewStart.
			currentLine = header.NewStart - 1
			continue
		}

		position++

		switch {
		case strings.HasPrefix(line, "+"):
			currentLine++
			if currentLine == targetLine {
				return position, true
			}
		case strings.HasPrefix(line, " "):
			currentLine++
		}
		// Deletions and "\ No newline" markers consume a position but do
		// not advance the output-side line counter.
	}

	return 0, false
}
