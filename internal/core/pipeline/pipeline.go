// Package pipeline provides the core verification engine for Warden Bot.
// It defines the Step interface and Context structure used by all pipeline steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/wardengh/warden-bot/internal/core/config"
	"github.com/wardengh/warden-bot/internal/reference"
)

// ErrSkipPipeline indicates that the pipeline should stop gracefully.
// This is not an error condition, just an early exit (e.g., owner PR,
// trivial diff, exempt contributor).
var ErrSkipPipeline = errors.New("skip remaining pipeline steps")

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Name returns the unique identifier for this step.
	Name() string

	// Run executes the step's logic.
	// It should return ErrSkipPipeline to stop the pipeline gracefully,
	// a *Violation to record a confirmed policy violation, or any other
	// error to indicate failure.
	Run(ctx *Context) error
}

// PullRequest is the immutable snapshot of the pull request being checked,
// built once per invocation from the triggering event. Author is lowercased
// at construction.
type PullRequest struct {
	Owner        string
	Repo         string
	Number       int
	Author       string
	Body         string
	ChangedFiles int
	Additions    int
	Deletions    int
}

// Outcome is the terminal result of one verification run.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeClosed   Outcome = "closed"
	OutcomeFailed   Outcome = "failed"
)

// Result holds the accumulated results from pipeline execution.
type Result struct {
	PRNumber      int
	RunID         string
	Outcome       Outcome
	Reason        string
	Skipped       bool
	SkipReason    string
	CommentPosted bool
	PRClosed      bool
	Errors        []error
}

// Context carries data through the pipeline steps.
type Context struct {
	// Ctx is the Go context for cancellation and timeouts.
	Ctx context.Context

	// PullRequest is the pull request being checked.
	PullRequest *PullRequest

	// Config is the loaded configuration.
	Config *config.Config

	// Result accumulates the verification results.
	Result *Result

	// Reference is the approval reference extracted from the body,
	// set by the extraction step for the verification step.
	Reference *reference.Reference

	// Approver is the login of the user who wrote the approval comment,
	// set by the verification step once resolved.
	Approver string

	// Metadata allows steps to pass arbitrary data to subsequent steps.
	Metadata map[string]interface{}
}

// NewContext creates a new pipeline context for a pull request.
func NewContext(ctx context.Context, pr *PullRequest, cfg *config.Config) *Context {
	return &Context{
		Ctx:         ctx,
		PullRequest: pr,
		Config:      cfg,
		Result:      &Result{PRNumber: pr.Number},
		Metadata:    make(map[string]interface{}),
	}
}

// Pipeline executes a sequence of steps.
type Pipeline struct {
	steps []Step
}

// New creates a new pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run executes all steps in order.
// Stops on the first error (unless it's ErrSkipPipeline, which is graceful).
func (p *Pipeline) Run(ctx *Context) error {
	for _, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				// Graceful early exit
				return nil
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name(), err)
		}
	}
	return nil
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Steps returns the list of steps (for introspection).
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Classify maps a pipeline run's error to the terminal outcome and records
// it on the result. A nil error is Approved unless a step skipped; a
// *Violation is Closed and is the only outcome that triggers remediation;
// everything else is Failed.
func Classify(result *Result, err error) Outcome {
	switch {
	case err == nil && result.Skipped:
		result.Outcome = OutcomeSkipped
		result.Reason = result.SkipReason
	case err == nil:
		result.Outcome = OutcomeApproved
	default:
		var violation *Violation
		if errors.As(err, &violation) {
			result.Outcome = OutcomeClosed
			result.Reason = violation.Reason
		} else {
			result.Outcome = OutcomeFailed
			result.Reason = err.Error()
			result.Errors = append(result.Errors, err)
		}
	}
	return result.Outcome
}
