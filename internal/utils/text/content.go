// Package text builds the user-facing message bodies the bot posts.
package text

import (
	"fmt"
	"strings"
)

// UserPlaceholder marks the spot in an approval template where the pull
// request author's login must appear.
const UserPlaceholder = "{user}"

// maxCommentLength is the platform's limit on comment bodies.
const maxCommentLength = 65536

// ApprovalPhrase builds the exact phrase a maintainer must have commented
// for the given author: the approval template with @login substituted for
// the {user} placeholder.
func ApprovalPhrase(template, login string) string {
	return strings.ReplaceAll(template, UserPlaceholder, "@"+login)
}

// RemediationComment constructs the explanation posted before closing an
// unapproved pull request. It combines the configured autoclose message
// with the specific reason, a machine-readable marker, and the bot footer.
func RemediationComment(message, reason, runID string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<!-- warden-bot-auto-close run:%s -->\n", runID)
	sb.WriteString("### Pull Request Closed Automatically\n\n")

	if m := strings.TrimSpace(message); m != "" {
		fmt.Fprintf(&sb, "%s\n\n", m)
	}
	if r := strings.TrimSpace(reason); r != "" {
		fmt.Fprintf(&sb, "**Reason:** %s\n\n", r)
	}

	sb.WriteString("---\n")
	sb.WriteString("<sub>Generated by [Warden Bot](https://github.com/wardengh/warden-bot)</sub>")

	return Truncate(sb.String(), maxCommentLength)
}

// Truncate shortens s to at most max runes, marking the cut with an
// ellipsis when room allows.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
