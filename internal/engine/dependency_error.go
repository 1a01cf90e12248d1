package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"changelogcheck/internal/policy"

	"github.com/google/go-github/v81/github"
)

// presentFetchError renders a collaborator failure for the ERROR result.
// Unless verbose, request URLs are dropped from go-github errors.
func presentFetchError(err error, verbose bool) string {
	if err == nil {
		return "unknown error"
	}
	if verbose {
		return err.Error()
	}

	msg := describeCause(err)
	var ie *policy.InfrastructureError
	if errors.As(err, &ie) && ie.Op != "" {
		return ie.Op + ": " + msg
	}
	return msg
}

func describeCause(err error) string {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		reset := rle.Rate.Reset.Time
		if reset.IsZero() {
			return "GitHub API rate limit exceeded"
		}
		return fmt.Sprintf("GitHub API rate limit exceeded (resets at %s)", reset.UTC().Format(time.RFC3339))
	}

	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		if d := arle.GetRetryAfter(); d > 0 {
			return fmt.Sprintf("GitHub API secondary rate limit hit (retry after %s)", d)
		}
		return "GitHub API secondary rate limit hit"
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if msg == "" {
			msg = "GitHub API request failed"
		}
		if er.Response != nil {
			status := fmt.Sprintf("%d %s", er.Response.StatusCode, http.StatusText(er.Response.StatusCode))
			return fmt.Sprintf("GitHub API request failed (%s): %s", status, msg)
		}
		return fmt.Sprintf("GitHub API request failed: %s", msg)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out waiting for GitHub"
	}

	cause := err
	var ie *policy.InfrastructureError
	if errors.As(err, &ie) && ie.Err != nil {
		cause = ie.Err
	}
	s := strings.TrimSpace(cause.Error())
	if scrubbed := scrubGitHubRequestFromErrorString(s); scrubbed != "" {
		return scrubbed
	}
	return s
}

func scrubGitHubRequestFromErrorString(s string) string {
	// Typical go-github error format:
	//   GET https://api.github.com/...: 403 Some message. [..]
	// We want to drop the leading "GET https://...: " part.
	methods := []string{"GET ", "POST ", "PUT ", "PATCH ", "DELETE "}
	for _, m := range methods {
		if strings.HasPrefix(s, m) {
			for _, scheme := range []string{"https://", "http://"} {
				if i := strings.Index(s, scheme); i >= 0 {
					if j := strings.Index(s[i:], ": "); j >= 0 {
						return strings.TrimSpace(s[i+j+2:])
					}
				}
			}
			if j := strings.Index(s, ": "); j >= 0 {
				return strings.TrimSpace(s[j+2:])
			}
			break
		}
	}
	return ""
}
