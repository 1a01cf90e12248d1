package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"changelogcheck/internal/policy"
)

func TestSummarySink_AppendsMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	if err := os.WriteFile(path, []byte("previous step\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := NewSummarySink(path, "CHANGELOG.md")
	if err != nil {
		t.Fatalf("NewSummarySink failed: %v", err)
	}

	exitCode := 1
	_ = s.Write(Event{Type: EventCheckStarted, Repo: "acme/widgets", PullRequest: 12, Source: "api"})
	_ = s.Write(policy.Result{Status: policy.StatusFail, Reason: "CHANGELOG.md has not been changed", Repo: "acme/widgets", PullRequest: 12})
	_ = s.Write(Event{Type: EventCheckFinished, ExitCode: &exitCode})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	body := string(b)
	for _, want := range []string{
		"previous step\n",
		"## Changelog check",
		"| acme/widgets#12 | ❌ FAIL | CHANGELOG.md has not been changed |",
		"Changelog file: `CHANGELOG.md` (changed files from api)",
		"> [!TIP]",
		"Exit code: 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("summary missing %q:\n%s", want, body)
		}
	}
	if !strings.HasPrefix(body, "previous step\n") {
		t.Fatalf("expected existing content to be preserved:\n%s", body)
	}
}

func TestSummarySink_PassHasNoTip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.md")
	s, err := NewSummarySink(path, "CHANGELOG.md")
	if err != nil {
		t.Fatalf("NewSummarySink failed: %v", err)
	}
	_ = s.Write(policy.Result{Passed: true, Status: policy.StatusPass, Reason: "changelog updated"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(string(b), "[!TIP]") {
		t.Fatalf("unexpected tip for passing check:\n%s", b)
	}
	if !strings.Contains(string(b), "| - | ✅ PASS | changelog updated |") {
		t.Fatalf("unexpected summary:\n%s", b)
	}
}

func TestSummarySink_NoResultsWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	s, err := NewSummarySink(path, "")
	if err != nil {
		t.Fatalf("NewSummarySink failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no summary file, stat err=%v", err)
	}
}

func TestSummarySink_RequiresPath(t *testing.T) {
	if _, err := NewSummarySink("", ""); err == nil {
		t.Fatalf("expected error")
	}
}
