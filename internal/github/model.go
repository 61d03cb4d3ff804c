package github

import "time"

// ChangedFile is one file touched by a pull request, with the unified
// diff patch the hosting API reports for it. Patch is empty for binary
// files and very large diffs.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// HarvestedComment is a past review comment collected for memory
// ingestion. DiffHunk carries the code context the comment was anchored
// to, which becomes the record's code chunk.
type HarvestedComment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Path      string    `json:"path"`
	DiffHunk  string    `json:"diff_hunk"`
	Reviewer  string    `json:"reviewer"`
	CreatedAt time.Time `json:"created_at"`
}

// PRDetails carries the pull-request fields the review prompts need.
type PRDetails struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Author string `json:"author"`
}
