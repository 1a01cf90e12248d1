package policy

// Exit codes:
//
//	0 = check passed or skipped
//	1 = changelog required but not changed
//	2 = labels or changed paths could not be retrieved
//	3 = fatal error (check did not run)
const (
	ExitPass      = 0
	ExitViolation = 1
	ExitInfra     = 2
	ExitFatal     = 3
)

// ExitCode maps results to the process exit status. Infrastructure errors
// win over violations so a flaky API is never reported as a missing changelog.
func ExitCode(results ...Result) int {
	violation := false
	for _, r := range results {
		switch r.Status {
		case StatusError:
			return ExitInfra
		case StatusFail:
			violation = true
		}
	}
	if violation {
		return ExitViolation
	}
	return ExitPass
}
