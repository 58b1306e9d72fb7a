package steps

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/wardengh/warden-bot/internal/core/config"
	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/integrations/github"
	"github.com/wardengh/warden-bot/internal/utils/text"
)

// Remediator posts the autoclose explanation and closes an unapproved pull
// request. It is not a pipeline step: the caller invokes it only after the
// verifier reaches a confirmed violation.
type Remediator struct {
	github *github.Client
	dryRun bool
}

// NewRemediator creates a new Remediator.
func NewRemediator(gh *github.Client, dryRun bool) *Remediator {
	return &Remediator{
		github: gh,
		dryRun: dryRun,
	}
}

// Run posts the explanatory comment, then closes the pull request. The two
// calls are independent and best-effort: the rejection has already been
// decided, so a failure in either is logged and recorded on the result
// rather than raised.
func (r *Remediator) Run(ctx context.Context, pr *pipeline.PullRequest, cfg *config.Config, result *pipeline.Result) {
	if r.github == nil {
		log.Printf("[remediator] GitHub client not available, cannot remediate PR #%d", pr.Number)
		return
	}

	if r.dryRun {
		log.Printf("[remediator] DRY RUN: would comment on and close PR #%d (%s)", pr.Number, result.Reason)
		return
	}

	body := text.RemediationComment(cfg.Approval.AutocloseMessage, result.Reason, result.RunID)

	if err := r.postComment(ctx, pr, body); err != nil {
		log.Printf("[remediator] Warning: failed to post autoclose comment on PR #%d: %v", pr.Number, err)
		result.Errors = append(result.Errors, err)
	} else {
		result.CommentPosted = true
		log.Printf("[remediator] Posted autoclose comment on PR #%d", pr.Number)
	}

	if err := r.closePullRequest(ctx, pr); err != nil {
		log.Printf("[remediator] Warning: failed to close PR #%d: %v", pr.Number, err)
		result.Errors = append(result.Errors, err)
	} else {
		result.PRClosed = true
		log.Printf("[remediator] Closed PR #%d", pr.Number)
	}
}

func (r *Remediator) postComment(ctx context.Context, pr *pipeline.PullRequest, body string) error {
	path := fmt.Sprintf("repos/%s/%s/issues/%d/comments", pr.Owner, pr.Repo, pr.Number)
	payload := map[string]string{"body": body}

	resp, err := r.github.Send(ctx, http.MethodPost, path, payload)
	if err != nil {
		return fmt.Errorf("failed to post comment: %w", err)
	}
	if !resp.OK() {
		return &github.StatusError{Resource: "autoclose comment", StatusCode: resp.StatusCode}
	}
	return nil
}

func (r *Remediator) closePullRequest(ctx context.Context, pr *pipeline.PullRequest) error {
	path := fmt.Sprintf("repos/%s/%s/pulls/%d", pr.Owner, pr.Repo, pr.Number)
	payload := map[string]string{"state": "closed"}

	resp, err := r.github.Send(ctx, http.MethodPatch, path, payload)
	if err != nil {
		return fmt.Errorf("failed to close pull request: %w", err)
	}
	if !resp.OK() {
		return &github.StatusError{Resource: "pull request close", StatusCode: resp.StatusCode}
	}
	return nil
}
