// Package github fetches pull-request data for review generation and
// posts generated comments back, using an explicit ordered list of
// posting strategies.
package github

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/go-github/v77/github"
)

// ErrNoCommits indicates a pull request with no commits, which cannot
// receive inline review comments.
var ErrNoCommits = errors.New("pull request has no commits")

// NewClient creates a GitHub API client with authentication
// token: GitHub personal access token
func NewClient(token string) *github.Client {
	return github.NewClient(nil).WithAuthToken(token)
}

// GetPRDetails fetches the pull-request fields used in review prompts.
func GetPRDetails(ctx context.Context, client *github.Client, owner, repo string, number int) (*PRDetails, error) {
	pr, _, err := client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, handleAPIError(err, "failed to get pull request")
	}

	details := &PRDetails{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
	}
	if user := pr.GetUser(); user != nil {
		details.Author = user.GetLogin()
	}
	return details, nil
}

// ListChangedFiles fetches all files touched by a PR with pagination,
// keeping only added and modified files that carry a patch. Order is the
// API's listing order.
func ListChangedFiles(ctx context.Context, client *github.Client, owner, repo string, number int) ([]ChangedFile, error) {
	var files []ChangedFile

	opts := &github.ListOptions{PerPage: 100}

	for {
		commitFiles, resp, err := client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, handleAPIError(err, "failed to list changed files")
		}

		for _, cf := range commitFiles {
			if cf == nil {
				continue
			}
			status := cf.GetStatus()
			if status != "added" && status != "modified" {
				continue
			}
			if cf.GetPatch() == "" {
				continue
			}
			files = append(files, ChangedFile{
				Filename:  cf.GetFilename(),
				Status:    status,
				Patch:     cf.GetPatch(),
				Additions: cf.GetAdditions(),
				Deletions: cf.GetDeletions(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

// HarvestReviewComments fetches all inline review comments on a PR with
// pagination, for ingestion into the review memory.
func HarvestReviewComments(ctx context.Context, client *github.Client, owner, repo string, number int) ([]HarvestedComment, error) {
	var harvested []HarvestedComment

	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		comments, resp, err := client.PullRequests.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, handleAPIError(err, "failed to list review comments")
		}

		for _, comment := range comments {
			if comment == nil || comment.GetBody() == "" {
				continue
			}
			hc := HarvestedComment{
				ID:        comment.GetID(),
				Body:      comment.GetBody(),
				Path:      comment.GetPath(),
				DiffHunk:  comment.GetDiffHunk(),
				CreatedAt: comment.GetCreatedAt().Time,
			}
			if user := comment.GetUser(); user != nil {
				hc.Reviewer = user.GetLogin()
			}
			harvested = append(harvested, hc)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sortHarvestedByTime(harvested)
	return harvested, nil
}

// HeadCommitSHA returns the SHA of the PR's most recent commit, which
// inline review comments must be anchored to.
func HeadCommitSHA(ctx context.Context, client *github.Client, owner, repo string, number int) (string, error) {
	var last string

	opts := &github.ListOptions{PerPage: 100}

	for {
		commits, resp, err := client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return "", handleAPIError(err, "failed to list commits")
		}
		if len(commits) > 0 {
			last = commits[len(commits)-1].GetSHA()
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if last == "" {
		return "", fmt.Errorf("%w: %s/%s#%d", ErrNoCommits, owner, repo, number)
	}
	return last, nil
}

// handleAPIError wraps API errors with context and detects rate limiting
func handleAPIError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: hit primary rate limit (used %d of %d, resets at %v): %w",
			msg, rateLimitErr.Rate.Used, rateLimitErr.Rate.Limit, rateLimitErr.Rate.Reset.Time, err)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		retryAfter := abuseErr.GetRetryAfter()
		return fmt.Errorf("%s: hit secondary rate limit (retry after %v): %w",
			msg, retryAfter, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

// sortHarvestedByTime sorts harvested comments by creation time, then ID
func sortHarvestedByTime(comments []HarvestedComment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
