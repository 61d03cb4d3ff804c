// Package git extracts per-file unified patches from a local repository,
// so reviews can run against a revision range without a hosting API.
package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// OpenRepository opens a Git repository from a local path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpen(path)
}

// ChangedFiles computes the file changes between two revisions. Revisions
// accept anything ResolveRevision does (branch names, tags, hashes,
// HEAD~N). Patch bodies start at the first hunk header, matching the
// shape the hosting API reports for a PR file.
func ChangedFiles(repo *git.Repository, baseRev, headRev string) ([]FileChange, error) {
	base, err := resolveCommit(repo, baseRev)
	if err != nil {
		return nil, err
	}
	head, err := resolveCommit(repo, headRev)
	if err != nil {
		return nil, err
	}

	patch, err := base.Patch(head)
	if err != nil {
		return nil, fmt.Errorf("failed to compute patch %s..%s: %w", baseRev, headRev, err)
	}

	bodies := splitPatchText(patch.String())

	var changes []FileChange
	for _, filePatch := range patch.FilePatches() {
		from, to := filePatch.Files()

		change := FileChange{}

		if from == nil && to != nil {
			change.Path = to.Path()
			change.Status = "added"
		} else if from != nil && to == nil {
			change.Path = from.Path()
			change.Status = "deleted"
		} else if from != nil && to != nil {
			change.Path = to.Path()
			change.OldPath = from.Path()
			if from.Path() != to.Path() {
				change.Status = "renamed"
			} else {
				change.Status = "modified"
			}
		}

		change.IsBinary = filePatch.IsBinary()

		// Count additions and deletions from chunks
		for _, chunk := range filePatch.Chunks() {
			content := chunk.Content()
			switch chunk.Type() {
			case 1: // Added
				change.Additions += strings.Count(content, "\n")
			case 2: // Deleted
				change.Deletions += strings.Count(content, "\n")
			}
		}

		if !change.IsBinary {
			change.Patch = bodies[change.Path]
		}

		changes = append(changes, change)
	}

	return changes, nil
}

// resolveCommit resolves a revision string to its commit object
func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %q: %w", rev, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	return commit, nil
}

// splitPatchText slices a rendered multi-file patch into per-file bodies,
// keyed by target path, each body starting at its first hunk header.
func splitPatchText(text string) map[string]string {
	bodies := make(map[string]string)

	for _, section := range strings.Split(text, "diff --git ") {
		if section == "" {
			continue
		}

		path := targetPath(section)
		if path == "" {
			continue
		}

		body := fromFirstHunk(section)
		if body == "" {
			continue
		}
		bodies[path] = body
	}

	return bodies
}

// targetPath extracts the post-change path from a section's first line,
// which reads like `a/old/path b/new/path`.
func targetPath(section string) string {
	firstLine := section
	if idx := strings.IndexByte(section, '\n'); idx >= 0 {
		firstLine = section[:idx]
	}

	fields := strings.Fields(firstLine)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[len(fields)-1], "b/")
}

// fromFirstHunk returns the section text starting at the first hunk
// header, trimmed of a trailing newline.
func fromFirstHunk(section string) string {
	var idx int
	if strings.HasPrefix(section, "@@") {
		idx = 0
	} else if at := strings.Index(section, "\n@@"); at >= 0 {
		idx = at + 1
	} else {
		return ""
	}
	return strings.TrimSuffix(section[idx:], "\n")
}
