package steps

import (
	"fmt"
	"log"
	"strings"

	githubapi "github.com/google/go-github/v60/github"

	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/integrations/github"
	"github.com/wardengh/warden-bot/internal/utils/text"
)

// privilegedRoles are the permission levels allowed to approve pull requests.
var privilegedRoles = map[string]bool{
	"write": true,
	"admin": true,
}

// ApprovalVerify checks the extracted reference against the live API: the
// comment must exist on an open issue in this repository, contain the
// expected approval phrase, and come from a user with write or admin
// permission.
type ApprovalVerify struct {
	github *github.Client
}

// NewApprovalVerify creates a new approval verification step.
func NewApprovalVerify(deps *pipeline.Dependencies) *ApprovalVerify {
	return &ApprovalVerify{
		github: deps.GitHub,
	}
}

// Name returns the step name.
func (s *ApprovalVerify) Name() string {
	return "approval_verify"
}

// Run walks the verification chain in order, stopping at the first check
// that fails. Confirmed policy violations come back as *pipeline.Violation;
// transport faults, unexpected statuses, and metadata anomalies come back
// as plain errors so the caller reports them instead of closing the PR.
func (s *ApprovalVerify) Run(ctx *pipeline.Context) error {
	if s.github == nil {
		return fmt.Errorf("github client is required for approval verification")
	}
	if ctx.Reference == nil {
		return fmt.Errorf("no approval reference on context, reference_extract must run first")
	}

	comment, err := s.fetchComment(ctx)
	if err != nil {
		return err
	}

	if err := s.checkIssueOpen(ctx, comment); err != nil {
		return err
	}

	if err := checkApprovalPhrase(ctx, comment); err != nil {
		return err
	}

	approver, err := s.checkApproverRole(ctx, comment)
	if err != nil {
		return err
	}

	ctx.Approver = approver
	log.Printf("[approval_verify] PR #%d approved by %q via comment %d",
		ctx.PullRequest.Number, approver, ctx.Reference.CommentID)
	return nil
}

// fetchComment retrieves the referenced approval comment. A 404 or an empty
// response body means the comment does not exist, which is a violation; any
// other non-200 is an API malfunction.
func (s *ApprovalVerify) fetchComment(ctx *pipeline.Context) (*githubapi.IssueComment, error) {
	pr := ctx.PullRequest
	path := fmt.Sprintf("repos/%s/%s/issues/comments/%d", pr.Owner, pr.Repo, ctx.Reference.CommentID)

	resp, err := s.github.Get(ctx.Ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.NotFound() {
		log.Printf("[approval_verify] Comment %d does not exist", ctx.Reference.CommentID)
		return nil, &pipeline.Violation{Reason: "comment not found"}
	}
	if !resp.OK() {
		return nil, &github.StatusError{Resource: "approval comment", StatusCode: resp.StatusCode}
	}
	if len(resp.Body) == 0 {
		log.Printf("[approval_verify] Comment %d came back empty", ctx.Reference.CommentID)
		return nil, &pipeline.Violation{Reason: "comment not found"}
	}

	var comment githubapi.IssueComment
	if err := resp.Decode(&comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// checkIssueOpen fetches the comment's parent issue and requires it to be
// open. Approvals on closed issues have been superseded or withdrawn.
func (s *ApprovalVerify) checkIssueOpen(ctx *pipeline.Context, comment *githubapi.IssueComment) error {
	issueURL := comment.GetIssueURL()
	if issueURL == "" {
		return fmt.Errorf("approval comment %d carries no parent issue URL", ctx.Reference.CommentID)
	}

	resp, err := s.github.Get(ctx.Ctx, issueURL)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &github.StatusError{Resource: "approval issue", StatusCode: resp.StatusCode}
	}

	var issue githubapi.Issue
	if err := resp.Decode(&issue); err != nil {
		return err
	}
	if issue.GetState() != "open" {
		log.Printf("[approval_verify] Approval issue #%d is %q", issue.GetNumber(), issue.GetState())
		return &pipeline.Violation{Reason: "approval issue closed"}
	}
	return nil
}

// checkApprovalPhrase requires the comment body to contain the expected
// phrase as an exact, case-sensitive substring.
func checkApprovalPhrase(ctx *pipeline.Context, comment *githubapi.IssueComment) error {
	phrase := text.ApprovalPhrase(ctx.Config.Approval.ApprovalTemplate, ctx.PullRequest.Author)
	if !strings.Contains(comment.GetBody(), phrase) {
		log.Printf("[approval_verify] Comment %d does not contain the expected phrase %q",
			ctx.Reference.CommentID, phrase)
		return &pipeline.Violation{Reason: "approval phrase not found"}
	}
	return nil
}

// checkApproverRole resolves the comment author and requires write or admin
// permission on the repository. A comment with no identifiable author is an
// integrity anomaly, not a violation.
func (s *ApprovalVerify) checkApproverRole(ctx *pipeline.Context, comment *githubapi.IssueComment) (string, error) {
	pr := ctx.PullRequest

	approver := comment.GetUser().GetLogin()
	if approver == "" {
		return "", &pipeline.IntegrityError{Reason: "approval comment has no identifiable author"}
	}

	path := fmt.Sprintf("repos/%s/%s/collaborators/%s/permission", pr.Owner, pr.Repo, approver)
	resp, err := s.github.Get(ctx.Ctx, path)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &github.StatusError{Resource: "collaborator permission", StatusCode: resp.StatusCode}
	}

	var level githubapi.RepositoryPermissionLevel
	if err := resp.Decode(&level); err != nil {
		return "", err
	}

	permission := level.GetPermission()
	if permission == "" {
		return "", &pipeline.IntegrityError{
			Reason: fmt.Sprintf("permission lookup for %s returned no permission level", approver),
		}
	}
	if !privilegedRoles[permission] {
		log.Printf("[approval_verify] Approver %q holds %q permission, want write or admin", approver, permission)
		return "", &pipeline.Violation{Reason: "approver lacks sufficient role"}
	}

	ctx.Metadata["approver_permission"] = permission
	return approver, nil
}
