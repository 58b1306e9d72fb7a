package commands

import (
	"context"
	"errors"

	"github.com/wardengh/warden-bot/internal/core/config"
	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/steps"
	"github.com/wardengh/warden-bot/internal/tui"
)

// statusReportingStep decorates a step with progress updates for the TUI.
type statusReportingStep struct {
	inner   pipeline.Step
	updates chan<- tui.StatusMsg
}

func (s *statusReportingStep) Name() string {
	return s.inner.Name()
}

func (s *statusReportingStep) Run(ctx *pipeline.Context) error {
	s.updates <- tui.StatusMsg{Step: s.Name(), Status: "started"}

	err := s.inner.Run(ctx)

	switch {
	case errors.Is(err, pipeline.ErrSkipPipeline):
		s.updates <- tui.StatusMsg{Step: s.Name(), Status: "skipped", Message: ctx.Result.SkipReason}
	case err != nil:
		s.updates <- tui.StatusMsg{Step: s.Name(), Status: "error", Message: err.Error()}
	default:
		s.updates <- tui.StatusMsg{Step: s.Name(), Status: "success"}
	}

	return err
}

// executeCheck builds the named steps, runs them for one pull request, and
// classifies the outcome. A confirmed violation triggers remediation before
// the result is returned. updates is nil for plain CI runs.
func executeCheck(ctx context.Context, deps *pipeline.Dependencies, stepNames []string, pr *pipeline.PullRequest, cfg *config.Config, runID string, updates chan<- tui.StatusMsg) *pipeline.Result {
	pCtx := pipeline.NewContext(ctx, pr, cfg)
	pCtx.Result.RunID = runID

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	built, err := registry.BuildFromNames(stepNames, deps)
	if err != nil {
		pipeline.Classify(pCtx.Result, err)
		return pCtx.Result
	}

	pipe := built
	if updates != nil {
		var wrapped []pipeline.Step
		for _, step := range built.Steps() {
			wrapped = append(wrapped, &statusReportingStep{inner: step, updates: updates})
		}
		pipe = pipeline.New(wrapped...)
	}

	outcome := pipeline.Classify(pCtx.Result, pipe.Run(pCtx))

	if outcome == pipeline.OutcomeClosed {
		steps.NewRemediator(deps.GitHub, deps.DryRun).Run(ctx, pr, cfg, pCtx.Result)
	}

	return pCtx.Result
}
