package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wardengh/warden-bot/internal/core/config"
	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/integrations/github"
)

func testDeps(t *testing.T, mux *http.ServeMux) *pipeline.Dependencies {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := github.NewClient(context.Background(), "test-token", github.WithBaseURL(server.URL))
	return &pipeline.Dependencies{GitHub: client}
}

// guard fails the test on any request the scenario does not script.
func guard(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	}
}

func checkConfig() *config.Config {
	cfg := &config.Config{Token: "test-token"}
	cfg.ApplyDefaults()
	return cfg
}

func checkPR(body string) *pipeline.PullRequest {
	return &pipeline.PullRequest{
		Owner:        "acme",
		Repo:         "widgets",
		Number:       17,
		Author:       "bob",
		Body:         body,
		ChangedFiles: 4,
		Additions:    120,
		Deletions:    8,
	}
}

func defaultSteps() []string {
	return pipeline.ResolveSteps(nil, "")
}

// happyVerificationAPI scripts comment 99 by carol approving bob on open
// issue 5, with the given permission level.
func happyVerificationAPI(mux *http.ServeMux, permission string) {
	mux.HandleFunc("/repos/acme/widgets/issues/comments/99", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id": 99, "body": "@bob PR approved", "issue_url": "http://%s/repos/acme/widgets/issues/5", "user": {"login": "carol"}}`, r.Host)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"number": 5, "state": "open"}`)
	})
	mux.HandleFunc("/repos/acme/widgets/collaborators/carol/permission", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"permission": %q, "user": {"login": "carol"}}`, permission)
	})
}

// remediationAPI scripts the comment-and-close endpoints, recording what
// was written.
func remediationAPI(t *testing.T, mux *http.ServeMux, commentBody *string, closed *bool) {
	mux.HandleFunc("/repos/acme/widgets/issues/17/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("comment request method = %s, want POST", r.Method)
		}
		var payload struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode comment payload: %v", err)
		}
		*commentBody = payload.Body
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 1}`)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/17", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("close request method = %s, want PATCH", r.Method)
		}
		*closed = true
		fmt.Fprint(w, `{"number": 17, "state": "closed"}`)
	})
}

func TestExecuteCheck_MalformedReferenceClosesPR(t *testing.T) {
	var commentBody string
	var closed bool

	mux := http.NewServeMux()
	mux.HandleFunc("/", guard(t))
	remediationAPI(t, mux, &commentBody, &closed)

	pr := checkPR("Approval: https://github.com/acme/widgets#issuecomment-9")
	result := executeCheck(context.Background(), testDeps(t, mux), defaultSteps(), pr, checkConfig(), "run-a", nil)

	if result.Outcome != pipeline.OutcomeClosed {
		t.Fatalf("Outcome = %s, want closed (reason: %s)", result.Outcome, result.Reason)
	}
	if !strings.Contains(result.Reason, "malformed") {
		t.Errorf("expected the reason to cite the malformed URL, got %q", result.Reason)
	}
	if !result.CommentPosted || !result.PRClosed || !closed {
		t.Error("expected the PR to be commented on and closed")
	}
	for _, want := range []string{
		"<!-- warden-bot-auto-close run:run-a -->",
		"**Reason:**",
	} {
		if !strings.Contains(commentBody, want) {
			t.Errorf("expected the autoclose comment to contain %q, got:\n%s", want, commentBody)
		}
	}
}

func TestExecuteCheck_ValidApprovalApproves(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", guard(t))
	happyVerificationAPI(mux, "write")

	pr := checkPR("Approval: https://github.com/acme/widgets/issues/5#issuecomment-99")
	result := executeCheck(context.Background(), testDeps(t, mux), defaultSteps(), pr, checkConfig(), "run-b", nil)

	if result.Outcome != pipeline.OutcomeApproved {
		t.Fatalf("Outcome = %s, want approved (reason: %s)", result.Outcome, result.Reason)
	}
	if result.CommentPosted || result.PRClosed {
		t.Error("expected no remediation on an approved PR")
	}
}

func TestExecuteCheck_InsufficientRoleClosesPR(t *testing.T) {
	var commentBody string
	var closed bool

	mux := http.NewServeMux()
	mux.HandleFunc("/", guard(t))
	happyVerificationAPI(mux, "read")
	remediationAPI(t, mux, &commentBody, &closed)

	pr := checkPR("Approval: https://github.com/acme/widgets/issues/5#issuecomment-99")
	result := executeCheck(context.Background(), testDeps(t, mux), defaultSteps(), pr, checkConfig(), "run-c", nil)

	if result.Outcome != pipeline.OutcomeClosed {
		t.Fatalf("Outcome = %s, want closed (reason: %s)", result.Outcome, result.Reason)
	}
	if want := "approver lacks sufficient role"; result.Reason != want {
		t.Errorf("Reason = %q, want %q", result.Reason, want)
	}
	if !result.CommentPosted || !result.PRClosed || !closed {
		t.Error("expected the PR to be commented on and closed")
	}
	if !strings.Contains(commentBody, "approver lacks sufficient role") {
		t.Errorf("expected the autoclose comment to carry the reason, got:\n%s", commentBody)
	}
}

func TestExecuteCheck_PastContributorSkips(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", guard(t))
	mux.HandleFunc("/repos/acme/widgets/contributors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?per_page=100&page=2>; rel="next"`, r.Host, r.URL.Path))
			fmt.Fprint(w, `[{"login": "alice"}, {"login": "carol"}]`)
		default:
			fmt.Fprint(w, `[{"login": "bob"}, {"login": "dave"}]`)
		}
	})

	cfg := checkConfig()
	cfg.Approval.ExcludePastContributors = true

	pr := checkPR("Approval: https://github.com/acme/widgets/issues/5#issuecomment-99")
	result := executeCheck(context.Background(), testDeps(t, mux), defaultSteps(), pr, cfg, "run-d", nil)

	if result.Outcome != pipeline.OutcomeSkipped {
		t.Fatalf("Outcome = %s, want skipped (reason: %s)", result.Outcome, result.Reason)
	}
	if want := "author bob is a past contributor"; result.Reason != want {
		t.Errorf("Reason = %q, want %q", result.Reason, want)
	}
	if result.CommentPosted || result.PRClosed {
		t.Error("expected no remediation on a skipped PR")
	}
}

func TestExecuteCheck_OwnerPRSkipsWithoutRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", guard(t))

	pr := checkPR("no reference at all")
	pr.Author = "acme"
	result := executeCheck(context.Background(), testDeps(t, mux), defaultSteps(), pr, checkConfig(), "run-e", nil)

	if result.Outcome != pipeline.OutcomeSkipped {
		t.Fatalf("Outcome = %s, want skipped (reason: %s)", result.Outcome, result.Reason)
	}
}

func TestExecuteCheck_APIErrorFailsWithoutRemediation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", guard(t))
	mux.HandleFunc("/repos/acme/widgets/issues/comments/99", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "rate limited"}`, http.StatusForbidden)
	})

	pr := checkPR("Approval: https://github.com/acme/widgets/issues/5#issuecomment-99")
	result := executeCheck(context.Background(), testDeps(t, mux), defaultSteps(), pr, checkConfig(), "run-f", nil)

	if result.Outcome != pipeline.OutcomeFailed {
		t.Fatalf("Outcome = %s, want failed (reason: %s)", result.Outcome, result.Reason)
	}
	if result.CommentPosted || result.PRClosed {
		t.Error("expected the PR to be left untouched on an API failure")
	}
	if len(result.Errors) == 0 {
		t.Error("expected the failure to be recorded on the result")
	}
}

func TestExecuteCheck_DryRunSkipsWrites(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", guard(t))

	pr := checkPR("Approval: https://github.com/acme/widgets#issuecomment-9")
	deps := testDeps(t, mux)
	deps.DryRun = true
	result := executeCheck(context.Background(), deps, defaultSteps(), pr, checkConfig(), "run-g", nil)

	if result.Outcome != pipeline.OutcomeClosed {
		t.Fatalf("Outcome = %s, want closed (reason: %s)", result.Outcome, result.Reason)
	}
	if result.CommentPosted || result.PRClosed {
		t.Error("expected no writes in dry-run mode")
	}
}

func TestExecuteCheck_UnknownStepFails(t *testing.T) {
	pr := checkPR("whatever")
	result := executeCheck(context.Background(), &pipeline.Dependencies{}, []string{"nonexistent"}, pr, checkConfig(), "run-h", nil)

	if result.Outcome != pipeline.OutcomeFailed {
		t.Fatalf("Outcome = %s, want failed (reason: %s)", result.Outcome, result.Reason)
	}
}
