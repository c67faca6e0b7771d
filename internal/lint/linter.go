// Package lint checks a declared stack against static-site hosting rules.
//
// Rules:
//
//	SS001: Public access blocks set all four flags explicitly; website buckets have one
//	SS002: Bucket policies grant objects of their own bucket only ("<arn>/*")
//	SS003: Bucket ACLs depend on the bucket's ownership controls
//	SS004: S3 origins use the bucket's regional domain name
//	SS005: Distribution logs go to a dedicated log bucket
//	SS006: Viewers are redirected to or restricted to HTTPS
//	SS007: Relaxed public access block on an identity-gated bucket (info)
package lint

import (
	"sort"

	"github.com/lex00/wetwire-staticsite-go/internal/stack"
)

// Severity of an issue.
type Severity string

// Severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single finding.
type Issue struct {
	Rule     string
	Severity Severity
	Resource string
	File     string
	Line     int
	Message  string
}

// Rule checks a stack.
type Rule interface {
	ID() string
	Description() string
	Check(st *stack.Stack) []Issue
}

// Result contains the outcome of linting.
type Result struct {
	// Success is false when any error or warning was found. Info findings
	// do not fail a lint run.
	Success bool
	Issues  []Issue
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// Rules to skip, applied after EnabledRules.
	DisabledRules []string
}

// Run applies the selected rules to st. Issues are sorted by declaration
// line, then rule ID.
func Run(st *stack.Stack, opts Options) Result {
	var issues []Issue
	for _, rule := range getRules(opts) {
		issues = append(issues, rule.Check(st)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Rule < issues[j].Rule
	})

	success := true
	for _, issue := range issues {
		if issue.Severity != SeverityInfo {
			success = false
			break
		}
	}

	return Result{Success: success, Issues: issues}
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	disabled := make(map[string]bool)
	for _, id := range opts.DisabledRules {
		disabled[id] = true
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if disabled[r.ID()] {
			continue
		}
		if len(enabled) > 0 && !enabled[r.ID()] {
			continue
		}
		filtered = append(filtered, r)
	}

	return filtered
}

// newIssue returns an issue located at e's declaration.
func newIssue(r Rule, severity Severity, e *stack.Entry, message string) Issue {
	return Issue{
		Rule:     r.ID(),
		Severity: severity,
		Resource: e.Name,
		File:     e.File,
		Line:     e.Line,
		Message:  message,
	}
}
