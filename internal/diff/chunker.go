package diff

import "strings"

// DefaultMaxChunkLines is the buffer size at which a hunk is split into
// multiple chunks.
const DefaultMaxChunkLines = 20

// splitLookback is how many trailing buffer lines are inspected before a
// size-based split. Splitting is deferred until a change appears near the
// boundary so a chunk never ends in the middle of a pure-context run.
const splitLookback = 5

// ReviewChunk is a bounded slice of one hunk, sized for a single review
// pass. Multiple chunks may share the same hunk header when a large hunk is
// split. Immutable once created.
type ReviewChunk struct {
	Filename     string   `json:"filename"`
	HunkHeader   string   `json:"hunk_header"`
	Text         string   `json:"code_chunk"`
	Lines        []string `json:"-"`
	AddedLines   []string `json:"added_lines"`
	RemovedLines []string `json:"removed_lines"`
}

// HasChanges reports whether the chunk contains any added or removed lines.
// Context-only chunks are still emitted by Chunk; filtering them is the
// retrieval layer's decision.
func (c ReviewChunk) HasChanges() bool {
	return len(c.AddedLines) > 0 || len(c.RemovedLines) > 0
}

// Chunk splits a unified-diff patch into reviewable chunks of at most
// maxLines lines each. Hunk headers delimit chunks; oversized hunks are
// split at change boundaries and the split chunks share the original
// header. maxLines <= 0 falls back to DefaultMaxChunkLines.
//
// Chunk holds no state between calls; the same input always yields the
// same output.
func Chunk(patch, filename string, maxLines int) []ReviewChunk {
	if patch == "" {
		return nil
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxChunkLines
	}

	var chunks []ReviewChunk
	var buffer []string
	hunkHeader := ""

	flush := func() {
		if len(buffer) > 0 && hunkHeader != "" {
			chunks = append(chunks, newChunk(filename, hunkHeader, buffer))
		}
		buffer = nil
	}

	for _, line := range strings.Split(patch, "\n") {
		if IsHunkHeader(line) {
			flush()
			hunkHeader = line
			continue
		}

		buffer = append(buffer, line)

		if len(buffer) >= maxLines && hasChangeNearEnd(buffer) {
			flush()
		}
	}

	flush()
	return chunks
}

// hasChangeNearEnd reports whether any of the last splitLookback lines is
// an addition or deletion.
func hasChangeNearEnd(lines []string) bool {
	start := len(lines) - splitLookback
	if start < 0 {
		start = 0
	}
	for _, line := range lines[start:] {
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			return true
		}
	}
	return false
}

func newChunk(filename, header string, lines []string) ReviewChunk {
	chunk := ReviewChunk{
		Filename:   filename,
		HunkHeader: header,
		Text:       strings.Join(lines, "\n"),
		Lines:      append([]string(nil), lines...),
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+"):
			chunk.AddedLines = append(chunk.AddedLines, line)
		case strings.HasPrefix(line, "-"):
			chunk.RemovedLines = append(chunk.RemovedLines, line)
		}
	}
	return chunk
}
