package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/relook/internal/orchestrator"
)

var rootCmd = &cobra.Command{
	Use:   "relook",
	Short: "Relook - Review memory for pull requests",
	Long: `Relook learns from a team's past code review comments and applies them
to new pull requests.

It chunks each changed file's diff, retrieves similar past reviews from
an embedding-backed memory, and generates consistent feedback that can be
posted back to the pull request as inline comments.`,
}

// Shared memory flags, registered on every command that touches the store.
var (
	memoryIndexPath string
	memoryMetaPath  string
	memoryBackend   string
)

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addMemoryFlags(cmd *cobra.Command) {
	defaults := orchestrator.DefaultConfig()
	cmd.Flags().StringVar(&memoryIndexPath, "memory-index", defaults.IndexPath, "Path to the vector index blob")
	cmd.Flags().StringVar(&memoryMetaPath, "memory-meta", defaults.MetadataPath, "Path to the record metadata table")
	cmd.Flags().StringVar(&memoryBackend, "backend", defaults.Backend, "Memory backend: flat or milvus")
}

func pipelineConfig() orchestrator.Config {
	config := orchestrator.DefaultConfig()
	config.Backend = memoryBackend
	config.IndexPath = memoryIndexPath
	config.MetadataPath = memoryMetaPath
	return config
}

// splitRepo parses an "owner/name" repository reference.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", repo)
	}
	return parts[0], parts[1], nil
}

// githubToken returns the GitHub token from the environment.
func githubToken() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("GITHUB_TOKEN environment variable not set")
	}
	return token, nil
}
