package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"changelogcheck/internal/config"
	"changelogcheck/internal/data"
	"changelogcheck/internal/data/models"
	"changelogcheck/internal/event"
	"changelogcheck/internal/fetcher"
	gh "changelogcheck/internal/github"
	"changelogcheck/internal/logger"
	"changelogcheck/internal/output"
	"changelogcheck/internal/policy"
)

// errFatal marks problems that stop the check before it runs: bad
// configuration, missing credentials, an unusable event payload.
var errFatal = errors.New("fatal")

func fatalf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errFatal}, args...)...)
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Workflow command annotations
	if cfg.Output.Annotate {
		if err := outMgr.AddSink(output.NewAnnotationSink(stdout, cfg.Policy.ChangelogPath)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Step summary
	if cfg.Output.Summary != "" {
		ss, err := output.NewSummarySink(cfg.Output.Summary, cfg.Policy.ChangelogPath)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(ss); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

type Engine struct {
	Client *gh.Client

	// Stdout receives console, emit and annotation output.
	Stdout io.Writer

	// newFetcher is a test seam. If nil, Engine builds a real fetcher
	// around Client.
	newFetcher func() *fetcher.Fetcher
}

func NewEngine(client *gh.Client) *Engine {
	return &Engine{
		Client: client,
		Stdout: os.Stdout,
	}
}

func (e *Engine) fetcher() *fetcher.Fetcher {
	if e.newFetcher != nil {
		return e.newFetcher()
	}
	return fetcher.NewFetcher(e.Client, fetcher.NewRequestBudget())
}

// checkRun carries the resolved inputs of one check through the stages of
// Run.
type checkRun struct {
	cfg     *config.Config
	policy  policy.Config
	ref     data.PullRequestRef
	ev      *event.Context
	fetcher *fetcher.Fetcher
	log     *slog.Logger

	labelsSource string
	pathsSource  string
	files        *models.ChangedFiles
}

// Run performs one check and returns the process exit code:
// 0 pass or skipped, 1 changelog missing, 2 collaborator failure, 3 fatal.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	log := logger.FromContext(ctx)

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	stdout := e.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	outMgr, err := setupOutputManager(cfg, stdout)
	if err != nil {
		log.Error("failed to create output sinks", slog.Any("error", err))
		return policy.ExitFatal
	}
	defer func() {
		if err := outMgr.Close(); err != nil {
			log.Error("failed to close output sinks", slog.Any("error", err))
		}
	}()

	run, err := e.prepare(ctx, cfg, log)
	if err != nil {
		log.Error("check did not run", slog.Any("error", err))
		return policy.ExitFatal
	}
	log = run.log

	_ = outMgr.Write(output.Event{
		Type:        output.EventCheckStarted,
		Repo:        run.ref.FullName(),
		PullRequest: run.ref.Number,
		Source:      cfg.Sources.Paths,
	})

	finished := func(code int) int {
		_ = outMgr.Write(output.Event{Type: output.EventCheckFinished, Repo: run.ref.FullName(), PullRequest: run.ref.Number, ExitCode: &code})
		return code
	}

	result, err := e.evaluate(ctx, run)
	if errors.Is(err, errFatal) {
		log.Error("check did not run", slog.Any("error", err))
		return finished(policy.ExitFatal)
	}
	if err != nil {
		log.Error("changelog check failed", slog.Any("error", err))
		result = policy.ErrorResult(err)
		result.Reason = presentFetchError(err, cfg.Runtime.Verbose)
	}

	result.Repo = run.ref.FullName()
	result.PullRequest = run.ref.Number
	result.Metadata = run.metadata()

	if err := outMgr.Write(result); err != nil {
		log.Error("failed to write result", slog.Any("error", err))
	}

	code := policy.ExitCode(result)
	log.Debug("check finished", slog.String("status", string(result.Status)), slog.Int("exit_code", code))
	return finished(code)
}

// prepare reads the event payload and resolves the target pull request.
func (e *Engine) prepare(ctx context.Context, cfg *config.Config, log *slog.Logger) (*checkRun, error) {
	ev, err := event.FromEnv(cfg.Target.EventName, cfg.Target.EventPath)
	if err != nil {
		return nil, fatalf("%w", err)
	}

	ref, err := resolveTarget(cfg, ev)
	if err != nil {
		return nil, fatalf("%w", err)
	}
	if !eventMatches(ev, ref) {
		ev = nil
	}

	log = log.With(slog.String("pull_request", ref.String()))
	if ev != nil {
		if _, err := policy.ParseEventType(ev.Action); err != nil {
			log.Warn("unsupported pull request action; evaluating anyway", slog.String("action", ev.Action))
		}
	}

	return &checkRun{
		cfg:     cfg,
		policy:  cfg.PolicyConfig(),
		ref:     ref,
		ev:      ev,
		fetcher: e.fetcher(),
		log:     log,
	}, nil
}

// evaluate gathers labels, consults policy.Required, and only then
// retrieves changed paths.
func (e *Engine) evaluate(ctx context.Context, run *checkRun) (policy.Result, error) {
	labels, err := run.labels(ctx)
	if err != nil {
		return policy.Result{}, err
	}

	in := policy.PullRequestEvent{Labels: labels}
	if run.ev != nil {
		in.Type, _ = policy.ParseEventType(run.ev.Action)
	}

	if !policy.Required(labels, run.policy) {
		run.log.Info("changelog not required", slog.String("exemption_label", run.policy.ExemptionLabel),
			slog.Bool("required_by_default", run.policy.RequiredByDefault))
		return policy.Evaluate(in, run.policy), nil
	}

	paths, err := run.changedPaths(ctx)
	if err != nil {
		return policy.Result{}, err
	}
	in.ChangedPaths = paths

	result := policy.Evaluate(in, run.policy)
	if result.IsViolation() && run.files != nil && run.files.Truncated {
		run.log.Warn("changed file list is truncated by the GitHub API; use --paths-from git for large pull requests",
			slog.Int("files", len(run.files.Files)))
	}
	return result, nil
}

func (r *checkRun) labels(ctx context.Context) ([]string, error) {
	switch r.cfg.Sources.Labels {
	case config.SourceEvent:
		if r.ev == nil {
			return nil, fatalf("--labels-from event requires a pull_request event payload for %s", r.ref)
		}
		r.labelsSource = config.SourceEvent
		return r.ev.Labels, nil
	case config.SourceAuto:
		if r.ev != nil {
			r.labelsSource = config.SourceEvent
			return r.ev.Labels, nil
		}
	}

	if _, err := r.fetcher.GitHub(); err != nil {
		return nil, fatalf("reading labels: %w", err)
	}
	r.labelsSource = config.SourceAPI
	val, err := r.fetcher.Fetch(ctx, r.ref, data.DepPullRequestLabels, nil)
	if err != nil {
		return nil, err
	}
	labels, ok := val.([]string)
	if !ok {
		return nil, policy.Infrastructure("read labels", fmt.Errorf("unexpected type %T for %s", val, data.DepPullRequestLabels))
	}
	r.log.Debug("labels retrieved", slog.Int("count", len(labels)))
	return labels, nil
}

func (r *checkRun) changedPaths(ctx context.Context) ([]string, error) {
	key := data.DepPullRequestFiles
	var params map[string]string
	needsAPI := true

	if r.cfg.Sources.Paths == config.SourceGit {
		key = data.DepPullRequestGitFiles
		params = map[string]string{"dir": r.cfg.Sources.GitDir}
		// Base and head come from the payload when present; otherwise the
		// pull request object is fetched.
		needsAPI = r.ref.BaseSHA == "" || r.ref.HeadSHA == ""
	}
	if needsAPI {
		if _, err := r.fetcher.GitHub(); err != nil {
			return nil, fatalf("reading changed files: %w", err)
		}
	}

	val, err := r.fetcher.Fetch(ctx, r.ref, key, params)
	if err != nil {
		return nil, err
	}
	files, ok := val.(*models.ChangedFiles)
	if !ok {
		return nil, policy.Infrastructure("read changed files", fmt.Errorf("unexpected type %T for %s", val, key))
	}
	r.files = files
	r.pathsSource = files.Source
	paths := files.Paths()
	r.log.Debug("changed files retrieved", slog.String("source", files.Source), slog.Int("count", len(paths)))
	return paths, nil
}

func (r *checkRun) metadata() map[string]any {
	md := map[string]any{
		"changelog_path": r.policy.ChangelogPath,
	}
	if r.labelsSource != "" {
		md["labels_source"] = r.labelsSource
	}
	if r.ev != nil && r.ev.Action != "" {
		md["event_action"] = r.ev.Action
	}
	if r.files != nil {
		md["paths_source"] = r.pathsSource
		md["changed_files"] = len(r.files.Files)
		if r.files.Truncated {
			md["truncated"] = true
		}
	}
	return md
}
