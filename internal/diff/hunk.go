// Package diff parses unified-diff patches into reviewable chunks and maps
// source line numbers back to diff positions for inline review comments.
// One hunk-header parser serves both directions so the chunker and the
// position resolver can never disagree on hunk arithmetic.
package diff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Common errors for patch parsing
var (
	ErrMalformedHunk = errors.New("malformed hunk header")
)

// hunkMarker is the two-character prefix that opens every hunk header.
const hunkMarker = "@@"

// hunkHeaderRegex matches headers with or without trailing context text,
// e.g. "@@ -10,7 +10,7 @@" and "@@ -1 +1,2 @@ func main()".
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// HunkHeader holds the parsed range values of one "@@ -old +new @@" header.
// NewStart is the output-side line number of the first line that follows
// the header.
type HunkHeader struct {
	OldStart int `json:"old_start"`
	OldLen   int `json:"old_len"`
	NewStart int `json:"new_start"`
	NewLen   int `json:"new_len"`
}

// ParseHunkHeader parses a single hunk-header line.
// A missing length defaults to 1, per the unified diff format.
func ParseHunkHeader(line string) (HunkHeader, error) {
	matches := hunkHeaderRegex.FindStringSubmatch(line)
	if matches == nil {
		return HunkHeader{}, fmt.Errorf("%w: %q", ErrMalformedHunk, line)
	}

	header := HunkHeader{
		OldStart: mustAtoi(matches[1]),
		OldLen:   1,
		NewStart: mustAtoi(matches[3]),
		NewLen:   1,
	}
	if matches[2] != "" {
		header.OldLen = mustAtoi(matches[2])
	}
	if matches[4] != "" {
		header.NewLen = mustAtoi(matches[4])
	}

	return header, nil
}

// IsHunkHeader reports whether the line opens a new hunk.
func IsHunkHeader(line string) bool {
	return strings.HasPrefix(line, hunkMarker)
}

// mustAtoi converts regex-validated digits; the regex guarantees success.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
