package git

import "strings"

// Conventional Commit types used for world changes.
const (
	CommitTypeFeat     = "feat"
	CommitTypeFix      = "fix"
	CommitTypeDocs     = "docs"
	CommitTypeRefactor = "refactor"
	CommitTypeChore    = "chore"
)

// Footer is the trailer appended to every commit canon writes.
const Footer = "Powered-by: Canon"

// maxSubject keeps the header line readable in `git log --oneline`.
const maxSubject = 72

// FormatCommitMessage renders "<type>(<scope>): <subject>", an optional body
// and the Footer, separated by blank lines. An empty type means chore.
// Subjects are collapsed to one line and truncated to fit maxSubject.
func FormatCommitMessage(ctype, scope, subject, body string) string {
	if ctype == "" {
		ctype = CommitTypeChore
	}
	header := ctype
	if scope != "" {
		header += "(" + scope + ")"
	}
	header += ": " + oneLine(subject, maxSubject-len(header)-2)

	parts := []string{header}
	if b := strings.TrimSpace(body); b != "" {
		parts = append(parts, b)
	}
	parts = append(parts, Footer)
	return strings.Join(parts, "\n\n")
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit > 3 && len(s) > limit {
		s = strings.TrimRight(s[:limit-3], " ") + "..."
	}
	return s
}
