package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/integrations/actions"
	"github.com/wardengh/warden-bot/internal/integrations/github"
	"github.com/wardengh/warden-bot/internal/steps"
)

var (
	closeRepo   string
	closeNumber int
	closeReason string
	closeDry    bool
)

// closeCmd represents the close command
var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Manually post the autoclose comment and close a pull request",
	Long: `Close runs the remediation path by hand: it posts the configured autoclose
message with the given reason, then closes the pull request. Useful when a
check failed mid-run or a maintainer wants to reject a pull request with the
standard explanation.

Environment variables:
  GITHUB_TOKEN   Required. Token with pull_requests:write permission.`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runClose())
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)

	closeCmd.Flags().StringVar(&closeRepo, "repo", "", "Repository in owner/name format (or set GITHUB_REPOSITORY)")
	closeCmd.Flags().IntVar(&closeNumber, "pr", 0, "Pull request number")
	closeCmd.Flags().StringVar(&closeReason, "reason", "", "Reason recorded in the autoclose comment")
	closeCmd.Flags().BoolVar(&closeDry, "dry-run", false, "Log remediation instead of writing")
}

func runClose() int {
	_ = godotenv.Load()

	if closeNumber <= 0 {
		fmt.Println("Error: --pr is required")
		return 1
	}

	owner, repo := resolveRepo(closeRepo)
	if owner == "" || repo == "" {
		fmt.Println("Error: --repo owner/name is required (or set GITHUB_REPOSITORY)")
		return 1
	}

	ctx := context.Background()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return fatalConfig(err)
	}

	pr := &pipeline.PullRequest{
		Owner:  owner,
		Repo:   repo,
		Number: closeNumber,
	}
	result := &pipeline.Result{
		PRNumber: closeNumber,
		RunID:    uuid.NewString(),
		Outcome:  pipeline.OutcomeClosed,
		Reason:   closeReason,
	}

	fmt.Printf("[Warden] Closing PR #%d in %s/%s...\n", closeNumber, owner, repo)
	steps.NewRemediator(github.NewClient(ctx, cfg.Token), closeDry).Run(ctx, pr, cfg, result)

	if closeDry {
		return 0
	}
	if !result.CommentPosted || !result.PRClosed {
		fmt.Printf("Remediation incomplete: comment posted=%v, closed=%v\n", result.CommentPosted, result.PRClosed)
		return 1
	}

	fmt.Printf("PR #%d commented on and closed\n", closeNumber)
	return 0
}

// resolveRepo splits an owner/name flag, falling back to the repository the
// workflow is running in.
func resolveRepo(flagRepo string) (string, string) {
	if flagRepo != "" {
		parts := strings.SplitN(flagRepo, "/", 2)
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
		return "", ""
	}

	if owner, repo, ok := actions.Repository(); ok {
		return owner, repo
	}
	return "", ""
}
