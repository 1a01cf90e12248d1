package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"changelogcheck/internal/policy"
)

// SummarySink appends a Markdown summary to path on Close. GitHub renders
// the file named by $GITHUB_STEP_SUMMARY on the workflow run page, and
// other steps may already have written to it, so the sink never truncates.
type SummarySink struct {
	path          string
	changelogPath string
	mu            sync.Mutex
	results       []policy.Result
	source        string
	exitCode      int
	haveExitCode  bool
}

func NewSummarySink(path, changelogPath string) (*SummarySink, error) {
	if path == "" {
		return nil, fmt.Errorf("summary path required")
	}
	return &SummarySink{path: path, changelogPath: changelogPath}, nil
}

func (s *SummarySink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case policy.Result:
		s.results = append(s.results, t)
	case Event:
		if t.Source != "" {
			s.source = t.Source
		}
		if t.Type == EventCheckFinished && t.ExitCode != nil {
			s.exitCode = *t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *SummarySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) == 0 {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}

	_, writeErr := f.WriteString(s.render())
	if closeErr := f.Close(); closeErr != nil && writeErr == nil {
		writeErr = closeErr
	}
	return writeErr
}

func (s *SummarySink) render() string {
	var b strings.Builder
	b.WriteString("## Changelog check\n\n")
	b.WriteString("| Pull request | Status | Reason |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, r := range s.results {
		target := resultTarget(r)
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(&b, "| %s | %s %s | %s |\n", target, statusEmoji(r.Status), r.Status, escapeTableCell(r.Reason))
	}
	b.WriteString("\n")

	if s.changelogPath != "" {
		fmt.Fprintf(&b, "Changelog file: `%s`", s.changelogPath)
		if s.source != "" {
			fmt.Fprintf(&b, " (changed files from %s)", s.source)
		}
		b.WriteString("\n\n")
	}

	for _, r := range s.results {
		if r.Status == policy.StatusFail {
			b.WriteString("> [!TIP]\n")
			b.WriteString("> Add an entry to the changelog, or ask a maintainer to apply the exemption label.\n\n")
			break
		}
	}

	if s.haveExitCode {
		fmt.Fprintf(&b, "Exit code: %d\n\n", s.exitCode)
	}
	return b.String()
}

func statusEmoji(st policy.Status) string {
	switch st {
	case policy.StatusPass:
		return "✅"
	case policy.StatusFail:
		return "❌"
	case policy.StatusSkipped:
		return "⏭️"
	case policy.StatusError:
		return "⚠️"
	}
	return ""
}

func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
