// Package steps contains the modular pipeline steps that make up the
// approval verification workflow. Each step implements the pipeline.Step
// interface.
package steps

import (
	"fmt"
	"log"
	"strings"

	"github.com/wardengh/warden-bot/internal/core/pipeline"
)

// Gatekeeper applies the pre-filters that decide whether a pull request
// needs approval verification at all.
type Gatekeeper struct{}

// NewGatekeeper creates a new gatekeeper step.
func NewGatekeeper(deps *pipeline.Dependencies) *Gatekeeper {
	return &Gatekeeper{}
}

// Name returns the step name.
func (s *Gatekeeper) Name() string {
	return "gatekeeper"
}

// Run checks the owner exemption and the diff-size thresholds.
func (s *Gatekeeper) Run(ctx *pipeline.Context) error {
	pr := ctx.PullRequest

	// Owner PRs are trusted unless the config insists otherwise.
	if strings.EqualFold(pr.Author, pr.Owner) && !ctx.Config.Filter.ForceValidateOwnerPRs {
		log.Printf("[gatekeeper] PR #%d was opened by repository owner %q, skipping", pr.Number, pr.Author)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = "pull request opened by repository owner"
		return pipeline.ErrSkipPipeline
	}

	if min := ctx.Config.Filter.MinDiffFiles; min > 0 && pr.ChangedFiles < min {
		log.Printf("[gatekeeper] PR #%d touches %d files, below the %d-file threshold, skipping",
			pr.Number, pr.ChangedFiles, min)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = fmt.Sprintf("diff touches %d files, below threshold %d", pr.ChangedFiles, min)
		return pipeline.ErrSkipPipeline
	}

	if min := ctx.Config.Filter.MinDiffLines; min > 0 && pr.Additions+pr.Deletions < min {
		log.Printf("[gatekeeper] PR #%d changes %d lines, below the %d-line threshold, skipping",
			pr.Number, pr.Additions+pr.Deletions, min)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = fmt.Sprintf("diff changes %d lines, below threshold %d", pr.Additions+pr.Deletions, min)
		return pipeline.ErrSkipPipeline
	}

	log.Printf("[gatekeeper] PR #%d by %q passes pre-filters, proceeding", pr.Number, pr.Author)
	return nil
}
