package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	githubapi "github.com/google/go-github/v60/github"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wardengh/warden-bot/internal/integrations/github"
)

var (
	contribRepo string
	contribUser string
)

// contributorsCmd represents the contributors command
var contributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "Check whether a user appears in the contributor roster",
	Long: `Contributors walks the repository's contributor roster the same way the
contributor gate does and reports whether the login appears in it. Useful
for debugging the exclude_past_contributors exemption.`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runContributors())
	},
}

func init() {
	rootCmd.AddCommand(contributorsCmd)

	contributorsCmd.Flags().StringVar(&contribRepo, "repo", "", "Repository in owner/name format (or set GITHUB_REPOSITORY)")
	contributorsCmd.Flags().StringVar(&contribUser, "user", "", "Login to look up")
}

func runContributors() int {
	_ = godotenv.Load()

	if contribUser == "" {
		fmt.Println("Error: --user is required")
		return 1
	}

	owner, repo := resolveRepo(contribRepo)
	if owner == "" || repo == "" {
		fmt.Println("Error: --repo owner/name is required (or set GITHUB_REPOSITORY)")
		return 1
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		fmt.Println("Error: GITHUB_TOKEN environment variable is required")
		return 1
	}

	ctx := context.Background()
	client := github.NewClient(ctx, token)

	path := fmt.Sprintf("repos/%s/%s/contributors?per_page=100", owner, repo)
	pager := client.Pages(ctx, path)

	pages := 0
	found := false
	for !found && pager.Next() {
		page := pager.Page()
		if !page.OK() {
			fmt.Printf("Error: contributor request returned status %d\n", page.StatusCode)
			return 1
		}
		pages++

		var contributors []*githubapi.Contributor
		if err := page.Decode(&contributors); err != nil {
			fmt.Printf("Error: failed to decode contributor page: %v\n", err)
			return 1
		}
		for _, c := range contributors {
			if strings.EqualFold(c.GetLogin(), contribUser) {
				found = true
				break
			}
		}
	}
	if err := pager.Err(); err != nil {
		fmt.Printf("Error: contributor walk aborted: %v\n", err)
		return 1
	}

	if found {
		fmt.Printf("%s is a contributor of %s/%s (found within %d page(s))\n", contribUser, owner, repo, pages)
	} else {
		fmt.Printf("%s is not a contributor of %s/%s (%d page(s) walked)\n", contribUser, owner, repo, pages)
	}
	return 0
}
