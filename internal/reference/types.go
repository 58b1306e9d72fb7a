// Package reference locates and parses approval-comment references embedded
// in pull request bodies.
package reference

import (
	"errors"
	"fmt"
)

// Reference is the parsed target of an approval check: the coordinates of the
// issue comment a pull request claims as its approval. Owner and Repo are
// lowercased during extraction.
type Reference struct {
	Owner       string
	Repo        string
	IssueNumber int
	CommentID   int64
	URL         string
}

// ErrNotFound reports that the pull request body contains no text matching
// the configured reference template.
var ErrNotFound = errors.New("no approval reference found in pull request body")

// MalformedURLError reports that the reference template matched but the
// embedded URL does not have the expected comment-URL shape.
type MalformedURLError struct {
	Text string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("approval reference URL %q is malformed: want https://github.com/{owner}/{repo}/issues/{number}#issuecomment-{id}", e.Text)
}

// CrossRepositoryError reports a well-formed reference that points at a
// different repository than the pull request's own.
type CrossRepositoryError struct {
	Expected string
	Actual   string
}

func (e *CrossRepositoryError) Error() string {
	return fmt.Sprintf("approval reference points at %s, want %s", e.Actual, e.Expected)
}
