package data

import "fmt"

// DependencyKey uniquely identifies a piece of pull-request data.
type DependencyKey string

// PullRequestRef identifies the pull request a dependency is fetched for.
// BaseSHA and HeadSHA are optional; providers that need them resolve them
// from DepPullRequest when empty.
type PullRequestRef struct {
	Owner   string
	Name    string
	Number  int
	BaseSHA string
	HeadSHA string
}

func (r PullRequestRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// String formats the ref as OWNER/REPO#NUMBER.
func (r PullRequestRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Name, r.Number)
}

func (r PullRequestRef) Validate() error {
	if r.Owner == "" || r.Name == "" {
		return fmt.Errorf("pull request owner/name is required")
	}
	if r.Number <= 0 {
		return fmt.Errorf("pull request number must be > 0 (got %d)", r.Number)
	}
	return nil
}
