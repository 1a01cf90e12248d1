package policy

type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusSkipped Status = "SKIPPED"
	StatusError   Status = "ERROR"
)

// Result is the terminal outcome of one run. Repo, PullRequest and Metadata
// are stamped by the engine for reporting and never influence Passed.
type Result struct {
	Passed      bool           `json:"passed"`
	Status      Status         `json:"status"`
	Reason      string         `json:"reason"`
	Repo        string         `json:"repo,omitempty"`
	PullRequest int            `json:"pull_request,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ErrorResult reports a collaborator failure. It is distinct from a failed
// check: Passed is false but the status is ERROR.
func ErrorResult(err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{Passed: false, Status: StatusError, Reason: msg}
}

// IsViolation reports whether the result is a policy failure.
func (r Result) IsViolation() bool {
	return r.Status == StatusFail
}
