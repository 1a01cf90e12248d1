package cli

import (
	"errors"
	"fmt"
	"os"

	"changelogcheck/internal/config"
	"changelogcheck/internal/flags"
	"changelogcheck/internal/policy"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

const rootLong = `changelogcheck enforces a changelog policy on pull requests.

A pull request must modify the changelog file unless it carries the
exemption label. The check reads the pull request's labels and changed
files, decides, and exits non-zero when the changelog is missing.

Examples:
	# Run inside a GitHub Actions pull_request workflow
	changelogcheck check

	# Check a pull request from a workstation
	changelogcheck check --pr https://github.com/acme/widgets/pull/12

	# Evaluate the policy offline
	changelogcheck evaluate --label bug --path src/app.go

	# Print the effective configuration
	changelogcheck config

	# Print build info
	changelogcheck version`

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// ExitCode maps an Execute error to a process exit code. Errors without an
// explicit code are usage mistakes and count as fatal.
func ExitCode(err error) int {
	if err == nil {
		return policy.ExitPass
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return policy.ExitFatal
}

func exitWith(code int) error {
	if code == policy.ExitPass {
		return nil
	}
	return &exitError{code: code}
}

// NewRootCmd builds the command tree. Every call returns fresh commands
// bound to a fresh configuration.
func NewRootCmd() *cobra.Command {
	cfg := config.New()
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "changelogcheck",
		Short:         "Require a changelog entry on pull requests",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate),
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call and full error details)")
	rootCmd.PersistentFlags().StringVar(&configPath, flags.FlagConfig, "", "Config file (YAML or JSON; default: "+config.DefaultFile+" if present)")

	rootCmd.AddCommand(
		newCheckCmd(cfg, &configPath),
		newEvaluateCmd(cfg, &configPath),
		newConfigCmd(cfg, &configPath),
		newVersionCmd(),
	)
	return rootCmd
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	err := NewRootCmd().Execute()
	var ee *exitError
	if err != nil && !errors.As(err, &ee) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
