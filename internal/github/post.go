package github

import (
	"context"
	"fmt"
	"log"

	"github.com/google/go-github/v77/github"

	"github.com/Yates-Labs/relook/internal/diff"
	"github.com/Yates-Labs/relook/internal/review"
)

// PostMethod identifies which posting strategy landed a comment.
type PostMethod string

const (
	// MethodInline is a direct inline review comment at a diff position.
	MethodInline PostMethod = "inline"
	// MethodReview posts through the review API with a draft comment.
	MethodReview PostMethod = "review"
	// MethodFileLevel is the plain issue-comment fallback that names the
	// file and approximate line in the body.
	MethodFileLevel PostMethod = "file-level"
)

// PostResult records the outcome of posting one comment. Err is non-nil
// only when every strategy failed.
type PostResult struct {
	File   string
	Line   int
	Method PostMethod
	Err    error
}

// Poster posts a generated review back to its pull request.
type Poster struct {
	client *github.Client
	owner  string
	repo   string
}

// NewPoster creates a poster for one repository.
func NewPoster(client *github.Client, owner, repo string) *Poster {
	return &Poster{client: client, owner: owner, repo: repo}
}

// PostReview posts every comment of a generated review, walking an
// ordered strategy list per comment: inline comment, then the review
// API, then a file-level issue comment. A comment whose source line has
// no diff position skips straight to the file-level fallback. When more
// than one comment lands, a summary comment is posted as well.
func (p *Poster) PostReview(ctx context.Context, rev *review.GeneratedReview) ([]PostResult, error) {
	headSHA, err := HeadCommitSHA(ctx, p.client, p.owner, p.repo, rev.PRNumber)
	if err != nil {
		return nil, err
	}

	files, err := ListChangedFiles(ctx, p.client, p.owner, p.repo, rev.PRNumber)
	if err != nil {
		return nil, err
	}
	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Filename] = f.Patch
	}

	results := make([]PostResult, 0, len(rev.Comments))
	posted := 0
	for _, comment := range rev.Comments {
		result := p.postComment(ctx, rev.PRNumber, headSHA, patches, comment)
		if result.Err == nil {
			posted++
		} else {
			log.Printf("[github] failed to post comment for %s:%d: %v", comment.File, comment.Line, result.Err)
		}
		results = append(results, result)
	}

	if posted > 1 {
		summary := review.BuildSummary(rev, posted)
		if err := p.postIssueComment(ctx, rev.PRNumber, summary); err != nil {
			log.Printf("[github] could not post summary comment: %v", err)
		}
	}

	log.Printf("[github] review posting complete: %d of %d comments posted", posted, len(rev.Comments))
	return results, nil
}

func (p *Poster) postComment(ctx context.Context, number int, headSHA string, patches map[string]string, comment review.Comment) PostResult {
	result := PostResult{File: comment.File, Line: comment.Line}
	body := review.FormatBody(comment)

	position, found := diff.ResolvePosition(patches[comment.File], comment.Line)

	if found {
		if err := p.postInline(ctx, number, headSHA, comment.File, position, body); err == nil {
			result.Method = MethodInline
			return result
		} else {
			log.Printf("[github] inline comment failed for %s:%d: %v", comment.File, comment.Line, err)
		}

		if err := p.postViaReview(ctx, number, comment.File, position, body); err == nil {
			result.Method = MethodReview
			return result
		} else {
			log.Printf("[github] review API failed for %s:%d: %v", comment.File, comment.Line, err)
		}
	}

	fallback := fmt.Sprintf("**File: `%s`** (line ~%d)\n\n%s", comment.File, comment.Line, body)
	if err := p.postIssueComment(ctx, number, fallback); err != nil {
		result.Err = err
		return result
	}
	result.Method = MethodFileLevel
	return result
}

func (p *Poster) postInline(ctx context.Context, number int, headSHA, path string, position int, body string) error {
	_, _, err := p.client.PullRequests.CreateComment(ctx, p.owner, p.repo, number, &github.PullRequestComment{
		Body:     github.Ptr(body),
		CommitID: github.Ptr(headSHA),
		Path:     github.Ptr(path),
		Position: github.Ptr(position),
	})
	return handleAPIError(err, "failed to create inline comment")
}

func (p *Poster) postViaReview(ctx context.Context, number int, path string, position int, body string) error {
	_, _, err := p.client.PullRequests.CreateReview(ctx, p.owner, p.repo, number, &github.PullRequestReviewRequest{
		Body:  github.Ptr("Auto-review based on similar past reviews"),
		Event: github.Ptr("COMMENT"),
		Comments: []*github.DraftReviewComment{{
			Path:     github.Ptr(path),
			Position: github.Ptr(position),
			Body:     github.Ptr(body),
		}},
	})
	return handleAPIError(err, "failed to create review")
}

func (p *Poster) postIssueComment(ctx context.Context, number int, body string) error {
	_, _, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	return handleAPIError(err, "failed to create issue comment")
}
