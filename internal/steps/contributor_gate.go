package steps

import (
	"fmt"
	"log"
	"strings"

	githubapi "github.com/google/go-github/v60/github"

	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/integrations/github"
)

// contributorPageSize is the fixed page size for roster walks.
const contributorPageSize = 100

// ContributorGate exempts authors who already appear in the repository's
// contributor roster, when the config enables the exemption.
type ContributorGate struct {
	github *github.Client
}

// NewContributorGate creates a new contributor gate step.
func NewContributorGate(deps *pipeline.Dependencies) *ContributorGate {
	return &ContributorGate{
		github: deps.GitHub,
	}
}

// Name returns the step name.
func (s *ContributorGate) Name() string {
	return "contributor_gate"
}

// Run skips verification for past contributors. The roster check is
// advisory: when it cannot be completed the author is treated as new and
// full verification proceeds.
func (s *ContributorGate) Run(ctx *pipeline.Context) error {
	if !ctx.Config.Approval.ExcludePastContributors {
		return nil
	}

	pr := ctx.PullRequest

	if s.github == nil {
		log.Printf("[contributor_gate] GitHub client not available, cannot check contributor roster")
		return nil
	}

	log.Printf("[contributor_gate] Checking whether %q is a past contributor of %s/%s",
		pr.Author, pr.Owner, pr.Repo)

	if s.isPastContributor(ctx) {
		log.Printf("[contributor_gate] %q is a past contributor, skipping verification", pr.Author)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = fmt.Sprintf("author %s is a past contributor", pr.Author)
		return pipeline.ErrSkipPipeline
	}

	log.Printf("[contributor_gate] %q not found in contributor roster, proceeding", pr.Author)
	return nil
}

// isPastContributor walks the contributor roster page by page looking for
// the author. Logins compare case-insensitively. Any non-success status,
// undecodable page, or aborted walk degrades to false.
func (s *ContributorGate) isPastContributor(ctx *pipeline.Context) bool {
	pr := ctx.PullRequest
	path := fmt.Sprintf("repos/%s/%s/contributors?per_page=%d", pr.Owner, pr.Repo, contributorPageSize)

	pager := s.github.Pages(ctx.Ctx, path)
	for pager.Next() {
		page := pager.Page()
		if !page.OK() {
			log.Printf("[contributor_gate] Warning: contributor request returned status %d, treating author as new",
				page.StatusCode)
			return false
		}

		var contributors []*githubapi.Contributor
		if err := page.Decode(&contributors); err != nil {
			log.Printf("[contributor_gate] Warning: failed to decode contributor page: %v, treating author as new", err)
			return false
		}

		for _, c := range contributors {
			if strings.EqualFold(c.GetLogin(), pr.Author) {
				return true
			}
		}
	}
	if err := pager.Err(); err != nil {
		log.Printf("[contributor_gate] Warning: contributor walk aborted: %v, treating author as new", err)
	}

	return false
}
