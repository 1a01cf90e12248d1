package output

import "changelogcheck/internal/policy"

// Lifecycle event types.
const (
	EventCheckStarted  = "check.started"
	EventCheckResult   = "check.result"
	EventCheckFinished = "check.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - check.started
// - check.result
// - check.finished
//
// JSON mode remains an aggregate of policy.Result values.
type Event struct {
	Type        string `json:"type"`
	Repo        string `json:"repo,omitempty"`
	PullRequest int    `json:"pull_request,omitempty"`
	*policy.Result
	Source   string `json:"source,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

func eventFromResult(r policy.Result) Event {
	return Event{Type: EventCheckResult, Repo: r.Repo, PullRequest: r.PullRequest, Result: &r}
}
