package steps

import (
	"fmt"
	"log"

	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/reference"
)

// ReferenceExtract locates the approval reference in the pull request body
// and parses it into comment coordinates for the verification step.
type ReferenceExtract struct{}

// NewReferenceExtract creates a new reference extraction step.
func NewReferenceExtract(deps *pipeline.Dependencies) *ReferenceExtract {
	return &ReferenceExtract{}
}

// Name returns the step name.
func (s *ReferenceExtract) Name() string {
	return "reference_extract"
}

// Run extracts the approval reference. A missing, malformed, or
// cross-repository reference is a confirmed violation: from the reviewer's
// standpoint all three mean no valid approval reference is present.
func (s *ReferenceExtract) Run(ctx *pipeline.Context) error {
	pr := ctx.PullRequest

	matcher, err := reference.NewMatcher(ctx.Config.Approval.ReferenceTemplate)
	if err != nil {
		return fmt.Errorf("failed to build reference matcher: %w", err)
	}

	ref, err := matcher.Extract(pr.Body, pr.Owner, pr.Repo)
	if err != nil {
		log.Printf("[reference_extract] PR #%d has no valid approval reference: %v", pr.Number, err)
		return &pipeline.Violation{Reason: err.Error()}
	}

	ctx.Reference = ref
	log.Printf("[reference_extract] PR #%d references comment %d on issue #%d",
		pr.Number, ref.CommentID, ref.IssueNumber)
	return nil
}
