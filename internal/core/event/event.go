// Package event parses the triggering pull_request event payload into the
// immutable snapshot the pipeline checks.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wardengh/warden-bot/internal/core/pipeline"
)

// ErrNoPullRequest reports a payload without a pull_request object. The
// check cannot run against anything else.
var ErrNoPullRequest = errors.New("event payload carries no pull_request object")

// payload represents the pull_request event structure delivered by the
// Actions runner.
type payload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest *struct {
		Number int    `json:"number"`
		Body   string `json:"body"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Base struct {
			Repo struct {
				Name  string `json:"name"`
				Owner struct {
					Login string `json:"login"`
				} `json:"owner"`
			} `json:"repo"`
		} `json:"base"`
		ChangedFiles int `json:"changed_files"`
		Additions    int `json:"additions"`
		Deletions    int `json:"deletions"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// Parse decodes an event payload into a pull request snapshot. The author
// login is lowercased; owner and repo keep their payload casing.
func Parse(data []byte) (*pipeline.PullRequest, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	if p.PullRequest == nil {
		return nil, ErrNoPullRequest
	}
	pr := p.PullRequest

	owner := pr.Base.Repo.Owner.Login
	repo := pr.Base.Repo.Name
	if owner == "" || repo == "" {
		// Older payloads identify the repository only at the top level.
		parts := strings.SplitN(p.Repository.FullName, "/", 2)
		if len(parts) == 2 {
			owner, repo = parts[0], parts[1]
		}
	}
	if owner == "" || repo == "" {
		return nil, errors.New("event payload does not identify the repository")
	}

	number := pr.Number
	if number == 0 {
		number = p.Number
	}
	if number == 0 {
		return nil, errors.New("event payload does not identify the pull request number")
	}

	if pr.User.Login == "" {
		return nil, errors.New("event payload does not identify the pull request author")
	}

	return &pipeline.PullRequest{
		Owner:        owner,
		Repo:         repo,
		Number:       number,
		Author:       strings.ToLower(pr.User.Login),
		Body:         pr.Body,
		ChangedFiles: pr.ChangedFiles,
		Additions:    pr.Additions,
		Deletions:    pr.Deletions,
	}, nil
}

// Load reads and parses the event payload from path, usually the file named
// by $GITHUB_EVENT_PATH.
func Load(path string) (*pipeline.PullRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	return Parse(data)
}
