package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"changelogcheck/internal/config"
	"changelogcheck/internal/data"
	"changelogcheck/internal/event"
)

// resolveTarget picks the pull request to check. Explicit configuration
// wins over the event payload; GITHUB_REPOSITORY fills in a missing repo.
func resolveTarget(cfg *config.Config, ev *event.Context) (data.PullRequestRef, error) {
	repo := cfg.Target.Repo
	number := cfg.Target.PullRequest

	if ev != nil {
		if repo == "" {
			repo = ev.Repo
		}
		if number == 0 {
			number = ev.Number
		}
	}
	if repo == "" {
		repo = strings.TrimSpace(os.Getenv(event.EnvRepository))
	}

	if repo == "" {
		return data.PullRequestRef{}, errors.New("no repository: set --repo or run inside a GitHub Actions pull_request workflow")
	}
	if number <= 0 {
		return data.PullRequestRef{}, errors.New("no pull request: set --pr or run inside a GitHub Actions pull_request workflow")
	}

	owner, name, err := config.SplitRepo(repo)
	if err != nil {
		return data.PullRequestRef{}, fmt.Errorf("invalid repository: %w", err)
	}

	ref := data.PullRequestRef{Owner: owner, Name: name, Number: number}
	if eventMatches(ev, ref) {
		ref.BaseSHA = ev.BaseSHA
		ref.HeadSHA = ev.HeadSHA
	}
	return ref, nil
}

// eventMatches reports whether the payload describes ref. A payload for a
// different pull request must not contribute labels or commits.
func eventMatches(ev *event.Context, ref data.PullRequestRef) bool {
	if ev == nil {
		return false
	}
	return ev.Number == ref.Number && strings.EqualFold(ev.Repo, ref.FullName())
}
