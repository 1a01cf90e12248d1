// Package policy holds the changelog policy decision. Everything in this
// package is pure: no I/O, no clocks, no globals. Callers retrieve labels and
// changed paths from a collaborator and hand them in.
package policy

import (
	"fmt"
	"slices"
)

const (
	DefaultExemptionLabel = "allow-no-changelog"
	DefaultChangelogPath  = "CHANGELOG.md"

	ReasonSkipped = "check skipped: exemption label present or policy disabled"
	ReasonUpdated = "changelog updated"
)

// Config is the process-wide policy. It is loaded once at start and never
// mutated afterwards.
type Config struct {
	RequiredByDefault bool   `json:"required_by_default" yaml:"required_by_default"`
	ExemptionLabel    string `json:"exemption_label" yaml:"exemption_label"`
	ChangelogPath     string `json:"changelog_path" yaml:"changelog_path"`
}

func DefaultConfig() Config {
	return Config{
		RequiredByDefault: true,
		ExemptionLabel:    DefaultExemptionLabel,
		ChangelogPath:     DefaultChangelogPath,
	}
}

// PullRequestEvent is the input to a single evaluation.
type PullRequestEvent struct {
	Labels       []string
	ChangedPaths []string
	Type         EventType
}

// Required reports whether the pull request must touch the changelog.
// Label matching is exact and case-sensitive.
func Required(labels []string, cfg Config) bool {
	if !cfg.RequiredByDefault {
		return false
	}
	return !slices.Contains(labels, cfg.ExemptionLabel)
}

// ChangelogTouched reports whether the configured changelog path appears
// verbatim among the changed paths. No glob or case folding.
func ChangelogTouched(paths []string, cfg Config) bool {
	return slices.Contains(paths, cfg.ChangelogPath)
}

// ViolationReason is the failure message for the configured changelog path.
func ViolationReason(cfg Config) string {
	path := cfg.ChangelogPath
	if path == "" {
		path = DefaultChangelogPath
	}
	return fmt.Sprintf("%s has not been changed", path)
}

// Evaluate decides the outcome for one pull-request event. When the check is
// not required, ChangedPaths is never consulted.
func Evaluate(event PullRequestEvent, cfg Config) Result {
	if !Required(event.Labels, cfg) {
		return Result{Passed: true, Status: StatusSkipped, Reason: ReasonSkipped}
	}
	if ChangelogTouched(event.ChangedPaths, cfg) {
		return Result{Passed: true, Status: StatusPass, Reason: ReasonUpdated}
	}
	return Result{Passed: false, Status: StatusFail, Reason: ViolationReason(cfg)}
}
