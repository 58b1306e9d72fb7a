package steps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wardengh/warden-bot/internal/core/config"
	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/integrations/github"
)

// newTestClient starts a fake API server and returns a client bound to it.
func newTestClient(t *testing.T, handler http.Handler) *github.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return github.NewClient(context.Background(), "test-token", github.WithBaseURL(server.URL))
}

// testPR returns the pull request snapshot used across step tests.
func testPR() *pipeline.PullRequest {
	return &pipeline.PullRequest{
		Owner:        "acme",
		Repo:         "widgets",
		Number:       17,
		Author:       "bob",
		Body:         "Approval: https://github.com/acme/widgets/issues/5#issuecomment-99",
		ChangedFiles: 4,
		Additions:    120,
		Deletions:    8,
	}
}

// newTestContext builds a pipeline context with defaulted config.
func newTestContext(pr *pipeline.PullRequest) *pipeline.Context {
	cfg := &config.Config{Token: "test-token"}
	cfg.ApplyDefaults()
	return pipeline.NewContext(context.Background(), pr, cfg)
}
