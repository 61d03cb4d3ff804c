package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/relook/internal/github"
	gitingest "github.com/Yates-Labs/relook/internal/ingest/git"
	"github.com/Yates-Labs/relook/internal/orchestrator"
	"github.com/Yates-Labs/relook/internal/review"
)

var (
	reviewRepo       string
	reviewLocalPath  string
	reviewBaseRev    string
	reviewHeadRev    string
	reviewOutputFile string
	reviewGuidelines string
	reviewModel      string
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-number]",
	Short: "Generate review comments for a pull request or local change set",
	Long: `Generate review comments by matching changed code against the review
memory.

Two modes are supported:
- PR mode: fetch the changed files of a pull request (requires --repo and
  GITHUB_TOKEN)
- Local mode: diff two revisions of a local repository (requires --local,
  --base and --head; no hosting API involved)

The generated review is written as JSON for the post command to consume.

Examples:
  relook review 42 --repo acme/widgets
  relook review --local . --base main --head HEAD
  relook review 42 --repo acme/widgets --output my_review.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().StringVar(&reviewRepo, "repo", "", "Repository as owner/name")
	reviewCmd.Flags().StringVar(&reviewLocalPath, "local", "", "Path to a local repository (local mode)")
	reviewCmd.Flags().StringVar(&reviewBaseRev, "base", "", "Base revision for local mode")
	reviewCmd.Flags().StringVar(&reviewHeadRev, "head", "HEAD", "Head revision for local mode")
	reviewCmd.Flags().StringVar(&reviewOutputFile, "output", review.DefaultOutputFile, "Output file for the generated review")
	reviewCmd.Flags().StringVar(&reviewGuidelines, "guidelines", "", "Path to the review rules file")
	reviewCmd.Flags().StringVar(&reviewModel, "model", "", "LLM model for comment generation")
	addMemoryFlags(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	config := pipelineConfig()
	if reviewGuidelines != "" {
		config.GuidelinesPath = reviewGuidelines
	}
	if reviewModel != "" {
		config.LLMConfig.Model = reviewModel
	}

	llm, err := review.NewOpenAILLM(config.LLMConfig)
	if err != nil {
		return fmt.Errorf("failed to create LLM: %w", err)
	}

	pipeline, err := orchestrator.NewPipeline(ctx, config, llm)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	var files []orchestrator.PatchFile
	var pr orchestrator.PRContext

	if reviewLocalPath != "" {
		files, pr, err = localChanges()
	} else {
		files, pr, err = remoteChanges(ctx, args)
	}
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Println("No reviewable file changes found")
		return nil
	}

	generated, err := pipeline.RunReview(ctx, files, pr)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	if err := generated.WriteFile(reviewOutputFile); err != nil {
		return err
	}

	renderReviewTable(generated)
	fmt.Printf("\nWrote %d comments to %s\n", len(generated.Comments), reviewOutputFile)
	return nil
}

// localChanges extracts patches from a local repository revision range.
func localChanges() ([]orchestrator.PatchFile, orchestrator.PRContext, error) {
	var pr orchestrator.PRContext

	if reviewBaseRev == "" {
		return nil, pr, fmt.Errorf("local mode requires --base")
	}

	repo, err := gitingest.OpenRepository(reviewLocalPath)
	if err != nil {
		return nil, pr, fmt.Errorf("failed to open repository %s: %w", reviewLocalPath, err)
	}

	changes, err := gitingest.ChangedFiles(repo, reviewBaseRev, reviewHeadRev)
	if err != nil {
		return nil, pr, err
	}

	var files []orchestrator.PatchFile
	for _, change := range changes {
		if !change.Reviewable() {
			continue
		}
		files = append(files, orchestrator.PatchFile{Name: change.Path, Patch: change.Patch})
	}

	pr = orchestrator.PRContext{
		Repo:  reviewRepo,
		Title: fmt.Sprintf("%s..%s", reviewBaseRev, reviewHeadRev),
	}
	return files, pr, nil
}

// remoteChanges fetches a pull request's changed files from the hosting API.
func remoteChanges(ctx context.Context, args []string) ([]orchestrator.PatchFile, orchestrator.PRContext, error) {
	var pr orchestrator.PRContext

	if len(args) == 0 {
		return nil, pr, fmt.Errorf("PR number required (or use --local)")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, pr, fmt.Errorf("invalid PR number %q", args[0])
	}
	if reviewRepo == "" {
		return nil, pr, fmt.Errorf("PR mode requires --repo owner/name")
	}
	owner, name, err := splitRepo(reviewRepo)
	if err != nil {
		return nil, pr, err
	}
	token, err := githubToken()
	if err != nil {
		return nil, pr, err
	}

	client := github.NewClient(token)

	details, err := github.GetPRDetails(ctx, client, owner, name, number)
	if err != nil {
		return nil, pr, err
	}

	changed, err := github.ListChangedFiles(ctx, client, owner, name, number)
	if err != nil {
		return nil, pr, err
	}

	var files []orchestrator.PatchFile
	for _, file := range changed {
		files = append(files, orchestrator.PatchFile{Name: file.Filename, Patch: file.Patch})
	}

	pr = orchestrator.PRContext{
		Repo:   reviewRepo,
		Number: number,
		Title:  details.Title,
		Author: details.Author,
	}
	return files, pr, nil
}

// renderReviewTable prints the generated comments as a styled table.
func renderReviewTable(generated *review.GeneratedReview) {
	var (
		headerColor = lipgloss.Color("#F780FF") // Bright pink/magenta
		fileColor   = lipgloss.Color("#BD93F9") // Purple
		numberColor = lipgloss.Color("#FF79C6") // Pink
		bodyColor   = lipgloss.Color("#E9E9F4") // Light purple/white
		borderColor = lipgloss.Color("#6272A4") // Muted purple
		summaryTint = lipgloss.Color("#8BE9FD") // Cyan accent
	)

	const (
		fileWidth    = 32
		lineWidth    = 6
		sourcesWidth = 9
		previewWidth = 48
	)

	headerStyle := lipgloss.NewStyle().
		Foreground(headerColor).
		Bold(true).
		Padding(0, 1)

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)

	headers := []string{
		headerStyle.Width(fileWidth).Render("FILE"),
		headerStyle.Width(lineWidth).Render("LINE"),
		headerStyle.Width(sourcesWidth).Render("SOURCES"),
		headerStyle.Width(previewWidth).Render("COMMENT"),
	}
	fmt.Println(strings.Join(headers, borderStyle.Render("│")))

	separatorParts := []string{
		strings.Repeat("─", fileWidth),
		strings.Repeat("─", lineWidth),
		strings.Repeat("─", sourcesWidth),
		strings.Repeat("─", previewWidth),
	}
	fmt.Println(borderStyle.Render(strings.Join(separatorParts, "┼")))

	fileStyle := lipgloss.NewStyle().Foreground(fileColor).Padding(0, 1).Width(fileWidth)
	lineStyle := lipgloss.NewStyle().Foreground(numberColor).Padding(0, 1).Width(lineWidth).Align(lipgloss.Right)
	sourcesStyle := lipgloss.NewStyle().Foreground(numberColor).Padding(0, 1).Width(sourcesWidth).Align(lipgloss.Right)
	bodyStyle := lipgloss.NewStyle().Foreground(bodyColor).Padding(0, 1).Width(previewWidth)

	for _, comment := range generated.Comments {
		preview := strings.SplitN(comment.Body, "\n", 2)[0]
		if len(preview) > previewWidth-3 {
			preview = preview[:previewWidth-3] + "..."
		}

		cells := []string{
			fileStyle.Render(comment.File),
			lineStyle.Render(fmt.Sprintf("%d", comment.Line)),
			sourcesStyle.Render(fmt.Sprintf("%d", len(comment.SimilarityInfo))),
			bodyStyle.Render(preview),
		}
		fmt.Println(strings.Join(cells, borderStyle.Render("│")))
	}

	summaryStyle := lipgloss.NewStyle().Foreground(summaryTint).Italic(true)
	summary := fmt.Sprintf("Analyzed %d chunks, %d with similar past reviews, memory size %d",
		generated.Metadata.TotalChunksAnalyzed,
		generated.Metadata.ChunksWithSimilarReviews,
		generated.Metadata.MemorySize)
	fmt.Println()
	fmt.Println(summaryStyle.Render(summary))
}
