package cli

import (
	"context"
	"fmt"
	"log/slog"

	"changelogcheck/internal/config"
	"changelogcheck/internal/engine"
	"changelogcheck/internal/flags"
	gh "changelogcheck/internal/github"
	"changelogcheck/internal/logger"
	"changelogcheck/internal/policy"

	"github.com/spf13/cobra"
)

const checkHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	GITHUB_EVENT_NAME, GITHUB_EVENT_PATH, GITHUB_REPOSITORY
	    Set by GitHub Actions; identify the pull request and carry its labels.

	CHANGELOGCHECK_*
	    Override any setting, e.g. CHANGELOGCHECK_EXEMPTION_LABEL=skip-changelog.
	    Flags win over the environment, which wins over the config file.

	The GitHub API is used for labels outside of Actions and for changed files
	unless --paths-from git is set. Token sources (in order):
	1) --token flag
	2) GITHUB_TOKEN environment variable
	3) GH_TOKEN environment variable
	4) GitHub CLI (gh) authentication via gh auth token

  Token guidance (brief):
  - In Actions, the default GITHUB_TOKEN with pull-requests: read is enough.
  - Fine-grained PAT: Pull requests: Read on the target repository.

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

func newCheckCmd(cfg *config.Config, configPath *string) *cobra.Command {
	var (
		prSelector string
		token      string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that a pull request updates the changelog",
		Long: `Check that a pull request updates the changelog.

The check is skipped when the policy is disabled or the pull request carries
the exemption label; changed files are not read in that case. Otherwise it
passes when the changelog path is among the changed files.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --summary: append a Markdown summary (defaults to GITHUB_STEP_SUMMARY)
	- --annotate: print workflow commands so failures annotate the pull request

	NDJSON mode emits one JSON object per line with a "type" field
	(check.started, check.result, check.finished).

Exit codes:
	0 = changelog updated, or check skipped
	1 = changelog required but not updated
	2 = labels or changed files could not be retrieved
	3 = fatal error (check did not run)

Examples:
  # In a pull_request workflow
  changelogcheck check

  # Against a pull request by URL
  export GITHUB_TOKEN="<your_token>"
  changelogcheck check --pr https://github.com/acme/widgets/pull/12

  # Use the local checkout instead of the files API
  changelogcheck check --paths-from git --git-dir .
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitWith(runCheck(cmd, cfg, *configPath, prSelector, token))
		},
	}
	cmd.SetHelpTemplate(checkHelpTemplate)

	bindPolicyFlags(cmd.Flags(), cfg)
	bindTargetFlags(cmd.Flags(), cfg, &prSelector)
	cmd.Flags().StringVar(&token, flags.FlagToken, "", "GitHub token (default: GITHUB_TOKEN, GH_TOKEN, then gh auth token)")
	bindSourceFlags(cmd.Flags(), cfg)
	bindOutputFlags(cmd.Flags(), cfg)
	bindRuntimeFlags(cmd.Flags(), cfg)
	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, configPath, prSelector, provided string) int {
	if err := loadConfig(cmd, cfg, configPath, prSelector); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return policy.ExitFatal
	}

	log := logger.Init(cmd.ErrOrStderr(), cfg.Runtime.Verbose)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx, log)

	token, source, err := gh.ResolveAuthToken(ctx, provided, apiHost(cfg.Sources.APIURL))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: failed to resolve GitHub auth token: %v\n", err)
		return policy.ExitFatal
	}

	// Without a token the check can still run from the event payload and a
	// local checkout; the engine reports a fatal error if it needs the API.
	var client *gh.Client
	if token != "" {
		var opts []gh.Option
		if cfg.Runtime.Verbose {
			opts = append(opts, gh.WithLogger(log))
		}
		if cfg.Sources.APIURL != "" {
			opts = append(opts, gh.WithBaseURL(cfg.Sources.APIURL))
		}
		client, err = gh.NewClient(ctx, token, opts...)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: failed to create GitHub client: %v\n", err)
			return policy.ExitFatal
		}
		log.Debug("resolved GitHub token", slog.String("source", string(source)))
	} else {
		log.Debug("no GitHub token found; only the event payload and git sources are available")
	}

	eng := engine.NewEngine(client)
	eng.Stdout = cmd.OutOrStdout()
	return eng.Run(ctx, cfg)
}
