package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"changelogcheck/internal/config"
	"changelogcheck/internal/flags"
	"changelogcheck/internal/logger"
	"changelogcheck/internal/output"
	"changelogcheck/internal/policy"

	"github.com/spf13/cobra"
)

func newEvaluateCmd(cfg *config.Config, configPath *string) *cobra.Command {
	var (
		labels    []string
		paths     []string
		pathsFile string
		action    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the changelog policy for given labels and changed paths",
		Long: `Evaluate the changelog policy without contacting GitHub.

Labels and changed paths are given on the command line. Paths can also be
read one per line from a file, or from stdin with --paths-file -, e.g. from
git diff --name-only.

Exit codes match the check command: 0 pass or skipped, 1 changelog missing.

Examples:
  changelogcheck evaluate --label allow-no-changelog --path src/app.go
  git diff --name-only origin/main... | changelogcheck evaluate --paths-file -
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitWith(runEvaluate(cmd, cfg, *configPath, labels, paths, pathsFile, action))
		},
	}

	bindPolicyFlags(cmd.Flags(), cfg)
	cmd.Flags().StringArrayVar(&labels, flags.FlagLabel, nil, "Pull request label (repeatable)")
	cmd.Flags().StringArrayVar(&paths, flags.FlagPath, nil, "Changed path (repeatable)")
	cmd.Flags().StringVar(&pathsFile, flags.FlagPathsFromInput, "", "Read changed paths from this file, one per line (- for stdin)")
	cmd.Flags().StringVar(&action, flags.FlagAction, "", "Pull request event action, e.g. synchronize (informational)")
	cmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	return cmd
}

func runEvaluate(cmd *cobra.Command, cfg *config.Config, configPath string, labels, paths []string, pathsFile, action string) int {
	if err := loadConfig(cmd, cfg, configPath, ""); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return policy.ExitFatal
	}
	log := logger.Init(cmd.ErrOrStderr(), cfg.Runtime.Verbose)

	if pathsFile != "" {
		more, err := readPaths(cmd.InOrStdin(), pathsFile)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return policy.ExitFatal
		}
		paths = append(paths, more...)
	}

	in := policy.PullRequestEvent{Labels: labels, ChangedPaths: paths}
	if action != "" {
		t, err := policy.ParseEventType(action)
		if err != nil {
			log.Warn("unsupported pull request action; evaluating anyway", slog.String("action", action))
		}
		in.Type = t
	}

	result := policy.Evaluate(in, cfg.PolicyConfig())

	sink := output.NewConsoleSink(cmd.OutOrStdout(), cfg.Output.ConsoleFormat)
	if err := sink.Write(result); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return policy.ExitFatal
	}
	if err := sink.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return policy.ExitFatal
	}
	return policy.ExitCode(result)
}

// readPaths reads one path per line, skipping blank lines. Surrounding
// whitespace is trimmed.
func readPaths(stdin io.Reader, name string) ([]string, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open paths file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read paths: %w", err)
	}
	return out, nil
}
