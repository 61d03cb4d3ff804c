package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/relook/internal/github"
	"github.com/Yates-Labs/relook/internal/orchestrator"
)

var rememberRepo string

var rememberCmd = &cobra.Command{
	Use:   "remember [pr-number]",
	Short: "Ingest a pull request's review comments into the memory",
	Long: `Harvest the inline review comments of a pull request and store them in
the review memory, so future reviews of similar code surface them.

Each stored record pairs the comment with the diff hunk it was anchored
to; tags are extracted from the comment text.

Examples:
  relook remember 42 --repo acme/widgets`,
	Args: cobra.ExactArgs(1),
	RunE: runRemember,
}

func init() {
	rootCmd.AddCommand(rememberCmd)
	rememberCmd.Flags().StringVar(&rememberRepo, "repo", "", "Repository as owner/name")
	addMemoryFlags(rememberCmd)
}

func runRemember(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid PR number %q", args[0])
	}
	if rememberRepo == "" {
		return fmt.Errorf("--repo owner/name is required")
	}
	owner, name, err := splitRepo(rememberRepo)
	if err != nil {
		return err
	}
	token, err := githubToken()
	if err != nil {
		return err
	}

	comments, err := github.HarvestReviewComments(ctx, github.NewClient(token), owner, name, number)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		fmt.Printf("No review comments found on %s#%d\n", rememberRepo, number)
		return nil
	}

	// Ingestion never generates text, so no LLM is wired in.
	pipeline, err := orchestrator.NewPipeline(ctx, pipelineConfig(), nil)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	stored, err := pipeline.Remember(ctx, comments, rememberRepo, number)
	if err != nil {
		return err
	}

	size, err := pipeline.MemorySize(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Stored %d of %d review comments from %s#%d (memory size: %d)\n",
		stored, len(comments), rememberRepo, number, size)
	return nil
}
