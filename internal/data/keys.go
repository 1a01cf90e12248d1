package data

const (
	// DepPullRequest is the pull request object (*github.PullRequest). Used to
	// resolve base/head SHAs when the event payload is unavailable.
	DepPullRequest DependencyKey = "pull_request.metadata"

	// DepPullRequestLabels is the current label set ([]string), read fresh
	// from the issues API.
	DepPullRequestLabels DependencyKey = "pull_request.labels"

	// DepPullRequestFiles is the changed-file list reported by the REST API
	// (*models.ChangedFiles).
	DepPullRequestFiles DependencyKey = "pull_request.files"

	// DepPullRequestGitFiles is the changed-file list computed from the local
	// checkout between merge-base(base, head) and head (*models.ChangedFiles).
	//
	// Params:
	// - dir: path inside the git working tree (default ".")
	DepPullRequestGitFiles DependencyKey = "pull_request.git_files"
)
