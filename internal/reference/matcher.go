package reference

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// URLPlaceholder marks the spot in a reference template where the approval
// comment URL must appear.
const URLPlaceholder = "{url}"

// commentURLPattern is the exact shape of a GitHub issue-comment URL.
// Owner and repo are non-slash, non-whitespace runs; issue number and
// comment id are digit runs.
const commentURLPattern = `https://github\.com/([^/\s]+)/([^/\s]+)/issues/(\d+)#issuecomment-(\d+)`

// looseURLPattern accepts any github.com URL-ish run. It is used to tell a
// present-but-malformed reference apart from a missing one.
const looseURLPattern = `https://github\.com/\S+`

// Matcher extracts approval references from free text using a configured
// template. The template is literal text around a single {url} placeholder;
// regex metacharacters in the literal parts match verbatim.
type Matcher struct {
	strict *regexp.Regexp
	loose  *regexp.Regexp
}

// NewMatcher compiles the reference template into a Matcher. The template
// must contain exactly one {url} placeholder.
func NewMatcher(referenceTemplate string) (*Matcher, error) {
	if strings.Count(referenceTemplate, URLPlaceholder) != 1 {
		return nil, fmt.Errorf("reference template %q must contain exactly one %s placeholder", referenceTemplate, URLPlaceholder)
	}

	parts := strings.SplitN(referenceTemplate, URLPlaceholder, 2)
	prefix := regexp.QuoteMeta(parts[0])
	suffix := regexp.QuoteMeta(parts[1])

	strict, err := regexp.Compile(prefix + `(` + commentURLPattern + `)` + suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reference pattern: %w", err)
	}
	loose, err := regexp.Compile(prefix + `(` + looseURLPattern + `)` + suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to compile loose reference pattern: %w", err)
	}

	return &Matcher{strict: strict, loose: loose}, nil
}

// Extract scans body for a reference and parses it. owner and repo identify
// the pull request's own repository; a reference pointing anywhere else
// fails with CrossRepositoryError. A body with no template match fails with
// ErrNotFound; a template match with an unparseable URL fails with
// MalformedURLError.
func (m *Matcher) Extract(body, owner, repo string) (*Reference, error) {
	groups := m.strict.FindStringSubmatch(body)
	if groups == nil {
		if loose := m.loose.FindStringSubmatch(body); loose != nil {
			return nil, &MalformedURLError{Text: loose[1]}
		}
		return nil, ErrNotFound
	}

	issueNumber, err := strconv.Atoi(groups[4])
	if err != nil {
		return nil, &MalformedURLError{Text: groups[1]}
	}
	commentID, err := strconv.ParseInt(groups[5], 10, 64)
	if err != nil {
		return nil, &MalformedURLError{Text: groups[1]}
	}

	ref := &Reference{
		Owner:       strings.ToLower(groups[2]),
		Repo:        strings.ToLower(groups[3]),
		IssueNumber: issueNumber,
		CommentID:   commentID,
		URL:         groups[1],
	}

	expected := strings.ToLower(owner) + "/" + strings.ToLower(repo)
	actual := ref.Owner + "/" + ref.Repo
	if actual != expected {
		return nil, &CrossRepositoryError{Expected: expected, Actual: actual}
	}

	return ref, nil
}
