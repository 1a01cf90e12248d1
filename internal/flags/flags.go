package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// config loader. The loader needs them to tell which values were set
// explicitly on the command line and must not be overridden by env or file.
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Policy
	FlagChangelogRequired = "changelog-required"
	FlagExemptionLabel    = "exemption-label"
	FlagChangelogPath     = "changelog-path"

	// Target
	FlagRepo        = "repo"
	FlagPullRequest = "pr"
	FlagEventPath   = "event-path"
	FlagEventName   = "event-name"

	// Sources
	FlagLabelsFrom = "labels-from"
	FlagPathsFrom  = "paths-from"
	FlagGitDir     = "git-dir"
	FlagAPIURL     = "api-url"
	FlagToken      = "token"

	// Offline evaluation
	FlagLabel          = "label"
	FlagPath           = "path"
	FlagPathsFromInput = "paths-file"
	FlagAction         = "action"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagEmit          = "emit"
	FlagNoConsole     = "no-console"
	FlagSummary       = "summary"
	FlagAnnotate      = "annotate"

	// Runtime
	FlagConfig  = "config"
	FlagTimeout = "timeout"
	FlagVerbose = "verbose"
)
