package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wardengh/warden-bot/internal/core/config"
)

type fakeStep struct {
	name string
	run  func(ctx *Context) error
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Run(ctx *Context) error {
	if s.run != nil {
		return s.run(ctx)
	}
	return nil
}

func testContext() *Context {
	pr := &PullRequest{Owner: "acme", Repo: "widgets", Number: 7, Author: "bob"}
	return NewContext(context.Background(), pr, &config.Config{})
}

func TestRun_AllStepsExecuteInOrder(t *testing.T) {
	var order []string
	p := New(
		&fakeStep{name: "first", run: func(ctx *Context) error {
			order = append(order, "first")
			return nil
		}},
		&fakeStep{name: "second", run: func(ctx *Context) error {
			order = append(order, "second")
			return nil
		}},
	)

	if err := p.Run(testContext()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Expected steps in order [first second], got %v", order)
	}
}

func TestRun_SkipIsGraceful(t *testing.T) {
	ran := false
	p := New(
		&fakeStep{name: "skipper", run: func(ctx *Context) error {
			ctx.Result.Skipped = true
			ctx.Result.SkipReason = "author is the repository owner"
			return ErrSkipPipeline
		}},
		&fakeStep{name: "after", run: func(ctx *Context) error {
			ran = true
			return nil
		}},
	)

	pCtx := testContext()
	if err := p.Run(pCtx); err != nil {
		t.Fatalf("Expected graceful skip, got error: %v", err)
	}
	if ran {
		t.Error("Expected steps after the skip not to run")
	}
	if !pCtx.Result.Skipped {
		t.Error("Expected Result.Skipped to be set")
	}
}

func TestRun_StopsAtFirstError(t *testing.T) {
	ran := false
	stepErr := errors.New("boom")
	p := New(
		&fakeStep{name: "failing", run: func(ctx *Context) error { return stepErr }},
		&fakeStep{name: "after", run: func(ctx *Context) error {
			ran = true
			return nil
		}},
	)

	err := p.Run(testContext())
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !errors.Is(err, stepErr) {
		t.Errorf("Expected wrapped step error, got %v", err)
	}
	if !strings.Contains(err.Error(), "step 'failing' failed") {
		t.Errorf("Expected step name in error, got %q", err.Error())
	}
	if ran {
		t.Error("Expected steps after the failure not to run")
	}
}

func TestRun_ViolationSurvivesWrapping(t *testing.T) {
	p := New(&fakeStep{name: "verify", run: func(ctx *Context) error {
		return &Violation{Reason: "approval phrase not found"}
	}})

	err := p.Run(testContext())
	var violation *Violation
	if !errors.As(err, &violation) {
		t.Fatalf("Expected *Violation through the wrap, got %v", err)
	}
	if violation.Reason != "approval phrase not found" {
		t.Errorf("Unexpected reason: %s", violation.Reason)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		skipped     bool
		skipReason  string
		wantOutcome Outcome
		wantReason  string
	}{
		{
			name:        "clean run is approved",
			wantOutcome: OutcomeApproved,
		},
		{
			name:        "skip is skipped with reason",
			skipped:     true,
			skipReason:  "past contributor",
			wantOutcome: OutcomeSkipped,
			wantReason:  "past contributor",
		},
		{
			name:        "violation is closed",
			err:         fmt.Errorf("step 'approval_verify' failed: %w", &Violation{Reason: "approval issue closed"}),
			wantOutcome: OutcomeClosed,
			wantReason:  "approval issue closed",
		},
		{
			name:        "integrity error is failed",
			err:         &IntegrityError{Reason: "approval comment has no identifiable author"},
			wantOutcome: OutcomeFailed,
		},
		{
			name:        "plain error is failed",
			err:         errors.New("connection reset"),
			wantOutcome: OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &Result{Skipped: tt.skipped, SkipReason: tt.skipReason}
			got := Classify(result, tt.err)
			if got != tt.wantOutcome {
				t.Errorf("Classify() = %v, want %v", got, tt.wantOutcome)
			}
			if result.Outcome != tt.wantOutcome {
				t.Errorf("Result.Outcome = %v, want %v", result.Outcome, tt.wantOutcome)
			}
			if tt.wantReason != "" && result.Reason != tt.wantReason {
				t.Errorf("Result.Reason = %q, want %q", result.Reason, tt.wantReason)
			}
			if tt.wantOutcome == OutcomeFailed && len(result.Errors) == 0 {
				t.Error("Expected the failure to be recorded in Result.Errors")
			}
		})
	}
}

func TestResolveSteps_Priority(t *testing.T) {
	tests := []struct {
		name     string
		explicit []string
		workflow string
		want     string
	}{
		{"explicit wins", []string{"gatekeeper"}, "pr-approval", "gatekeeper"},
		{"workflow preset", nil, "reference-only", "gatekeeper"},
		{"default", nil, "", "gatekeeper"},
		{"unknown workflow falls back", nil, "nope", "gatekeeper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := ResolveSteps(tt.explicit, tt.workflow)
			if len(steps) == 0 {
				t.Fatal("Expected at least one step")
			}
			if steps[0] != tt.want {
				t.Errorf("Expected first step %q, got %q", tt.want, steps[0])
			}
		})
	}
}

func TestRegistry_BuildFromNames(t *testing.T) {
	registry := NewRegistry()
	registry.Register("noop", func(deps *Dependencies) (Step, error) {
		return &fakeStep{name: "noop"}, nil
	})

	p, err := registry.BuildFromNames([]string{"noop", "noop"}, &Dependencies{})
	if err != nil {
		t.Fatalf("BuildFromNames failed: %v", err)
	}
	if len(p.Steps()) != 2 {
		t.Errorf("Expected 2 steps, got %d", len(p.Steps()))
	}

	if _, err := registry.BuildFromNames([]string{"missing"}, &Dependencies{}); err == nil {
		t.Error("Expected error for unknown step name")
	}
}
