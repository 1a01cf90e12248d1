package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"changelogcheck/internal/policy"
)

// Source selectors for labels and changed paths.
const (
	SourceAuto  = "auto"
	SourceEvent = "event"
	SourceAPI   = "api"
	SourceGit   = "git"
)

type Config struct {
	Policy  Policy  `yaml:"policy"`
	Target  Target  `yaml:"target"`
	Sources Sources `yaml:"sources"`
	Output  Output  `yaml:"output"`
	Runtime Runtime `yaml:"runtime"`
}

type Policy struct {
	// Required enforces the changelog by default (see --changelog-required).
	Required bool `yaml:"changelog_required"`

	// ExemptionLabel disables the check when present on the pull request.
	// Matched exactly, case-sensitive (see --exemption-label).
	ExemptionLabel string `yaml:"exemption_label"`

	// ChangelogPath is the repository-relative path that must change
	// (see --changelog-path).
	ChangelogPath string `yaml:"changelog_path"`
}

type Target struct {
	// Repo is OWNER/REPO. Defaults to GITHUB_REPOSITORY or the event payload.
	Repo string `yaml:"repo,omitempty"`

	// PullRequest is the pull request number. --pr also accepts a pull
	// request URL, which sets Repo as well.
	PullRequest int `yaml:"pull_request,omitempty"`

	// EventPath is the webhook payload file (GITHUB_EVENT_PATH).
	EventPath string `yaml:"event_path,omitempty"`

	// EventName is the webhook event name (GITHUB_EVENT_NAME).
	EventName string `yaml:"event_name,omitempty"`
}

type Sources struct {
	// Labels is one of: auto, event, api. auto reads the event payload when
	// one is available and falls back to the API.
	Labels string `yaml:"labels"`

	// Paths is one of: api, git.
	Paths string `yaml:"paths"`

	// GitDir is the local checkout used when Paths is git.
	GitDir string `yaml:"git_dir"`

	// APIURL points the client at a GitHub Enterprise Server instance.
	APIURL string `yaml:"api_url,omitempty"`
}

type Output struct {
	// ConsoleFormat is one of: text, json, ndjson.
	ConsoleFormat string `yaml:"console_format"`

	// Out writes structured output to this path.
	Out string `yaml:"out,omitempty"`

	// OutFormat is json or ndjson. Inferred from the --out extension if empty.
	OutFormat string `yaml:"out_format,omitempty"`

	// Emit writes an additional structured stream to stdout: json, ndjson.
	Emit []string `yaml:"emit,omitempty"`

	// NoConsole suppresses the console sink.
	NoConsole bool `yaml:"no_console"`

	// Summary appends a Markdown summary to this path (GITHUB_STEP_SUMMARY).
	Summary string `yaml:"summary,omitempty"`

	// Annotate prints GitHub Actions workflow commands for failures.
	Annotate bool `yaml:"annotate"`
}

type Runtime struct {
	// Timeout bounds the whole run, including API calls. Must be > 0.
	Timeout time.Duration `yaml:"timeout"`

	// Verbose enables debug logging (every GitHub API call).
	Verbose bool `yaml:"verbose"`
}

func New() *Config {
	def := policy.DefaultConfig()
	return &Config{
		Policy: Policy{
			Required:       def.RequiredByDefault,
			ExemptionLabel: def.ExemptionLabel,
			ChangelogPath:  def.ChangelogPath,
		},
		Sources: Sources{
			Labels: SourceAuto,
			Paths:  SourceAPI,
			GitDir: ".",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Timeout: 2 * time.Minute,
		},
	}
}

// PolicyConfig returns the immutable policy handed to the evaluator.
func (c *Config) PolicyConfig() policy.Config {
	return policy.Config{
		RequiredByDefault: c.Policy.Required,
		ExemptionLabel:    c.Policy.ExemptionLabel,
		ChangelogPath:     c.Policy.ChangelogPath,
	}
}

func (c *Config) Validate() error {
	c.Output.Emit = splitCommaList(c.Output.Emit)

	// Policy validation. Labels and paths are matched verbatim, so trim
	// flag values the same way the env and file layers do and reject
	// values that can never match.
	c.Policy.ExemptionLabel = strings.TrimSpace(c.Policy.ExemptionLabel)
	if c.Policy.ExemptionLabel == "" {
		return errors.New("--exemption-label must not be empty")
	}
	p := strings.TrimSpace(c.Policy.ChangelogPath)
	if p == "" {
		return errors.New("--changelog-path must not be empty")
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "./") || path.Clean(p) != p {
		return fmt.Errorf("--changelog-path must be a clean repository-relative path, got %q", c.Policy.ChangelogPath)
	}
	c.Policy.ChangelogPath = p

	// Target validation
	if c.Target.Repo != "" {
		repo, err := normalizeRepoSelector(c.Target.Repo)
		if err != nil {
			return fmt.Errorf("invalid --repo value: %w", err)
		}
		c.Target.Repo = repo
	}
	if c.Target.PullRequest < 0 {
		return errors.New("--pr must be > 0")
	}

	// Source validation
	c.Sources.Labels = normalizeEnumValue(c.Sources.Labels)
	if c.Sources.Labels == "" {
		c.Sources.Labels = SourceAuto
	}
	if c.Sources.Labels != SourceAuto && c.Sources.Labels != SourceEvent && c.Sources.Labels != SourceAPI {
		return fmt.Errorf("unsupported --labels-from: %s (must be one of: auto, event, api)", c.Sources.Labels)
	}
	c.Sources.Paths = normalizeEnumValue(c.Sources.Paths)
	if c.Sources.Paths == "" {
		c.Sources.Paths = SourceAPI
	}
	if c.Sources.Paths != SourceAPI && c.Sources.Paths != SourceGit {
		return fmt.Errorf("unsupported --paths-from: %s (must be one of: api, git)", c.Sources.Paths)
	}
	if c.Sources.APIURL != "" {
		u, err := url.Parse(c.Sources.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid --api-url value: %q", c.Sources.APIURL)
		}
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}
	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
		c.Output.Emit[i] = v
	}
	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			case "":
				return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
			default:
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	return nil
}

// ParsePullRequestSelector accepts a pull request number or a URL like
// https://github.com/OWNER/REPO/pull/123 and returns the repo (empty for a
// bare number) and number.
func ParsePullRequestSelector(raw string) (repo string, number int, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, nil
	}
	if n, convErr := strconv.Atoi(strings.TrimPrefix(raw, "#")); convErr == nil {
		if n <= 0 {
			return "", 0, fmt.Errorf("%q: pull request number must be > 0", raw)
		}
		return "", n, nil
	}

	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", 0, fmt.Errorf("%q", raw)
	}
	parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
	if len(parts) < 4 || (parts[2] != "pull" && parts[2] != "pulls") {
		return "", 0, fmt.Errorf("%q: expected OWNER/REPO/pull/NUMBER", raw)
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("%q: invalid pull request number", raw)
	}
	return parts[0] + "/" + parts[1], n, nil
}

// SplitRepo splits OWNER/REPO.
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository must be OWNER/REPO, got %q", repo)
	}
	return owner, name, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeRepoSelector(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	// Accept OWNER/REPO, or a GitHub URL like:
	//   https://github.com/<owner>/<repo>
	//   github.com/<owner>/<repo>.git
	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%q", raw)
		}
		parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
		if len(parts) < 2 {
			return "", fmt.Errorf("%q", raw)
		}
		raw = parts[0] + "/" + strings.TrimSuffix(parts[1], ".git")
	}

	if _, _, err := SplitRepo(raw); err != nil {
		return "", fmt.Errorf("%q", raw)
	}
	return raw, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
