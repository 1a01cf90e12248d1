package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"changelogcheck/internal/config"
	"changelogcheck/internal/flags"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func bindPolicyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.BoolVar(&cfg.Policy.Required, flags.FlagChangelogRequired, cfg.Policy.Required, "Require a changelog change unless the exemption label is present")
	fs.StringVar(&cfg.Policy.ExemptionLabel, flags.FlagExemptionLabel, cfg.Policy.ExemptionLabel, "Label that exempts a pull request (exact, case-sensitive)")
	fs.StringVar(&cfg.Policy.ChangelogPath, flags.FlagChangelogPath, cfg.Policy.ChangelogPath, "Repository-relative path of the changelog file")
}

func bindTargetFlags(fs *pflag.FlagSet, cfg *config.Config, prSelector *string) {
	fs.StringVar(&cfg.Target.Repo, flags.FlagRepo, "", "Repository as OWNER/REPO or URL (default: GITHUB_REPOSITORY or the event payload)")
	fs.StringVar(prSelector, flags.FlagPullRequest, "", "Pull request number or URL (default: the event payload)")
	fs.StringVar(&cfg.Target.EventPath, flags.FlagEventPath, "", "Webhook payload file (default: GITHUB_EVENT_PATH)")
	fs.StringVar(&cfg.Target.EventName, flags.FlagEventName, "", "Webhook event name (default: GITHUB_EVENT_NAME)")
}

func bindSourceFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Sources.Labels, flags.FlagLabelsFrom, cfg.Sources.Labels, "Where to read labels: auto|event|api (auto: event payload if present, else API)")
	fs.StringVar(&cfg.Sources.Paths, flags.FlagPathsFrom, cfg.Sources.Paths, "Where to read changed files: api|git")
	fs.StringVar(&cfg.Sources.GitDir, flags.FlagGitDir, cfg.Sources.GitDir, "Local checkout used with --paths-from git")
	fs.StringVar(&cfg.Sources.APIURL, flags.FlagAPIURL, "", "GitHub Enterprise Server URL, e.g. https://ghe.example.com/api/v3/")
}

func bindOutputFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	fs.StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	fs.StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	fs.StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	fs.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")
	fs.StringVar(&cfg.Output.Summary, flags.FlagSummary, os.Getenv("GITHUB_STEP_SUMMARY"), "Append a Markdown summary to this path (default: GITHUB_STEP_SUMMARY)")
	fs.BoolVar(&cfg.Output.Annotate, flags.FlagAnnotate, os.Getenv("GITHUB_ACTIONS") == "true", "Print GitHub Actions annotations (default: on inside Actions)")
}

func bindRuntimeFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout")
}

// loadConfig layers the config file and environment under the flags, applies
// the --pr selector and validates the result.
func loadConfig(cmd *cobra.Command, cfg *config.Config, configPath, prSelector string) error {
	changed := cmd.Flags().Changed
	if err := config.Load(cfg, config.LoadOptions{
		Path:     configPath,
		Explicit: changed(flags.FlagConfig),
		Changed:  changed,
	}); err != nil {
		return err
	}

	if prSelector != "" {
		repo, number, err := config.ParsePullRequestSelector(prSelector)
		if err != nil {
			return fmt.Errorf("invalid --pr value: %w", err)
		}
		cfg.Target.PullRequest = number
		if repo != "" {
			if cfg.Target.Repo != "" && !strings.EqualFold(cfg.Target.Repo, repo) {
				return fmt.Errorf("--repo %s does not match --pr %s", cfg.Target.Repo, prSelector)
			}
			cfg.Target.Repo = repo
		}
	}

	return cfg.Validate()
}

// apiHost returns the hostname used for `gh auth token -h`.
func apiHost(apiURL string) string {
	if apiURL == "" {
		return ""
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
