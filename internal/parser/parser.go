// Package parser turns free-form project lists into check targets.
package parser

import (
	"strings"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
)

// Parse converts newline-separated "path/branch" lines into targets.
//
// Blank lines are skipped and surrounding whitespace is trimmed. The last
// slash-separated segment is the branch and everything before it is the
// project path, so nested group paths work. A line without a slash gets
// domain.DefaultBranch. Parsing never fails and never deduplicates; an
// invalid path is left for GitLab to reject.
func Parse(input string) []domain.Target {
	var targets []domain.Target
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "/")
		if len(parts) >= 2 {
			targets = append(targets, domain.Target{
				Path:   strings.Join(parts[:len(parts)-1], "/"),
				Branch: parts[len(parts)-1],
			})
			continue
		}

		targets = append(targets, domain.Target{
			Path:   line,
			Branch: domain.DefaultBranch,
		})
	}
	return targets
}

// SplitList converts a "|"-separated project list, as used in links such as
// ?projectPath=a/main|b/dev, into Parse input.
func SplitList(list string) string {
	var lines []string
	for _, p := range strings.Split(list, "|") {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	return strings.Join(lines, "\n")
}

// Format renders targets back into Parse input, one per line
func Format(targets []domain.Target) string {
	lines := make([]string, len(targets))
	for i, t := range targets {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}
