package git

// FileChange represents one file changed between two revisions, with its
// unified diff body in the same shape the hosting API reports (hunk
// headers and +/-/context lines, no "diff --git" preamble).
type FileChange struct {
	Path      string `json:"path"`
	OldPath   string `json:"old_path,omitempty"` // For renames
	Status    string `json:"status"`             // "added", "modified", "deleted", "renamed"
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
	IsBinary  bool   `json:"is_binary"`
}

// Reviewable reports whether the change can feed review chunking: added
// or modified text files that carry a patch body.
func (c FileChange) Reviewable() bool {
	if c.IsBinary || c.Patch == "" {
		return false
	}
	return c.Status == "added" || c.Status == "modified"
}
