// Package event reads the GitHub Actions run context: the event name, the
// webhook payload file and the repository slug.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v81/github"
)

const (
	EnvEventName  = "GITHUB_EVENT_NAME"
	EnvEventPath  = "GITHUB_EVENT_PATH"
	EnvRepository = "GITHUB_REPOSITORY"
)

// ErrNotPullRequest is returned for payloads of other event types.
var ErrNotPullRequest = errors.New("event is not a pull request event")

// Context is the subset of a pull_request payload the check consumes.
type Context struct {
	Name    string
	Action  string
	Repo    string
	Number  int
	Labels  []string
	BaseSHA string
	HeadSHA string
}

// FromEnv resolves the event name and payload path, preferring explicit
// values over the GITHUB_* environment. It returns (nil, nil) when no
// payload is available, which is normal outside of Actions.
func FromEnv(name, path string) (*Context, error) {
	if name == "" {
		name = os.Getenv(EnvEventName)
	}
	if path == "" {
		path = os.Getenv(EnvEventPath)
	}
	if path == "" {
		return nil, nil
	}

	ctx, err := Load(name, path)
	if err != nil {
		return nil, err
	}
	if ctx.Repo == "" {
		ctx.Repo = os.Getenv(EnvRepository)
	}
	return ctx, nil
}

// Load decodes the payload at path. Both pull_request and
// pull_request_target carry the same payload shape.
func Load(name, path string) (*Context, error) {
	switch name {
	case "", "pull_request", "pull_request_target":
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotPullRequest, name)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event payload: %w", err)
	}
	return Parse(name, raw)
}

func Parse(name string, raw []byte) (*Context, error) {
	var payload github.PullRequestEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	pr := payload.GetPullRequest()
	if pr == nil {
		return nil, ErrNotPullRequest
	}

	number := payload.GetNumber()
	if number == 0 {
		number = pr.GetNumber()
	}

	ctx := &Context{
		Name:    name,
		Action:  payload.GetAction(),
		Repo:    payload.GetRepo().GetFullName(),
		Number:  number,
		Labels:  LabelNames(pr.Labels),
		BaseSHA: pr.GetBase().GetSHA(),
		HeadSHA: pr.GetHead().GetSHA(),
	}
	if ctx.Labels == nil {
		ctx.Labels = []string{}
	}
	return ctx, nil
}

// LabelNames returns label names in payload order, keeping exact spelling.
func LabelNames(labels []*github.Label) []string {
	if labels == nil {
		return nil
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == nil {
			continue
		}
		out = append(out, l.GetName())
	}
	return out
}

// String identifies the pull request for logs, e.g. "acme/widgets#12".
func (c *Context) String() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s#%d", strings.TrimSpace(c.Repo), c.Number)
}
