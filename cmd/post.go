package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/relook/internal/github"
	"github.com/Yates-Labs/relook/internal/review"
)

var (
	postRepo  string
	postInput string
)

var postCmd = &cobra.Command{
	Use:   "post [pr-number]",
	Short: "Post a generated review to its pull request",
	Long: `Post the comments of a previously generated review back to the pull
request. Each comment is tried as an inline comment at its diff position
first, then through the review API, then as a file-level comment when no
position can be resolved.

Examples:
  relook post 42 --repo acme/widgets
  relook post 42 --repo acme/widgets --input my_review.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPost,
}

func init() {
	rootCmd.AddCommand(postCmd)
	postCmd.Flags().StringVar(&postRepo, "repo", "", "Repository as owner/name")
	postCmd.Flags().StringVar(&postInput, "input", review.DefaultOutputFile, "Generated review file to post")
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	generated, err := review.ReadGeneratedReview(postInput)
	if err != nil {
		return err
	}
	if len(generated.Comments) == 0 {
		fmt.Println("Generated review has no comments to post")
		return nil
	}

	if len(args) > 0 {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid PR number %q", args[0])
		}
		generated.PRNumber = number
	}
	if generated.PRNumber <= 0 {
		return fmt.Errorf("no PR number in %s, pass it as an argument", postInput)
	}

	if postRepo == "" {
		return fmt.Errorf("--repo owner/name is required")
	}
	owner, name, err := splitRepo(postRepo)
	if err != nil {
		return err
	}
	token, err := githubToken()
	if err != nil {
		return err
	}

	poster := github.NewPoster(github.NewClient(token), owner, name)
	results, err := poster.PostReview(ctx, generated)
	if err != nil {
		return fmt.Errorf("posting failed: %w", err)
	}

	posted := 0
	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("✗ %s:%d failed: %v\n", result.File, result.Line, result.Err)
			continue
		}
		posted++
		fmt.Printf("✓ %s:%d posted (%s)\n", result.File, result.Line, result.Method)
	}

	fmt.Printf("\nPosted %d of %d comments to %s#%d\n", posted, len(results), postRepo, generated.PRNumber)
	return nil
}
