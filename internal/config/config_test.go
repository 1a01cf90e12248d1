package config

import (
	"reflect"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	pc := cfg.PolicyConfig()
	if !pc.RequiredByDefault {
		t.Fatalf("expected changelog to be required by default")
	}
	if pc.ExemptionLabel != "allow-no-changelog" {
		t.Fatalf("unexpected exemption label %q", pc.ExemptionLabel)
	}
	if pc.ChangelogPath != "CHANGELOG.md" {
		t.Fatalf("unexpected changelog path %q", pc.ChangelogPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate_NormalizesCommaDelimitedEmit(t *testing.T) {
	cfg := New()
	cfg.Output.Emit = []string{"json, NDJSON", ",,"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	want := []string{"json", "ndjson"}
	if !reflect.DeepEqual(cfg.Output.Emit, want) {
		t.Fatalf("Emit normalized mismatch: got %v want %v", cfg.Output.Emit, want)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty exemption label", func(c *Config) { c.Policy.ExemptionLabel = " " }, "--exemption-label"},
		{"empty changelog path", func(c *Config) { c.Policy.ChangelogPath = "" }, "--changelog-path"},
		{"absolute changelog path", func(c *Config) { c.Policy.ChangelogPath = "/CHANGELOG.md" }, "repository-relative"},
		{"dotted changelog path", func(c *Config) { c.Policy.ChangelogPath = "./CHANGELOG.md" }, "repository-relative"},
		{"unclean changelog path", func(c *Config) { c.Policy.ChangelogPath = "docs//CHANGELOG.md" }, "repository-relative"},
		{"bad repo", func(c *Config) { c.Target.Repo = "just-owner" }, "--repo"},
		{"negative pr", func(c *Config) { c.Target.PullRequest = -1 }, "--pr"},
		{"bad labels source", func(c *Config) { c.Sources.Labels = "git" }, "--labels-from"},
		{"bad paths source", func(c *Config) { c.Sources.Paths = "event" }, "--paths-from"},
		{"bad api url", func(c *Config) { c.Sources.APIURL = "ftp://ghe.local" }, "--api-url"},
		{"bad console format", func(c *Config) { c.Output.ConsoleFormat = "xml" }, "--console-format"},
		{"bad emit", func(c *Config) { c.Output.Emit = []string{"yaml"} }, "--emit"},
		{"out without extension", func(c *Config) { c.Output.Out = "result" }, "missing extension"},
		{"out unknown extension", func(c *Config) { c.Output.Out = "result.txt" }, ".txt"},
		{"bad out format", func(c *Config) { c.Output.Out = "result"; c.Output.OutFormat = "csv" }, "unsupported output format"},
		{"zero timeout", func(c *Config) { c.Runtime.Timeout = 0 }, "--timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_TrimsPolicyValues(t *testing.T) {
	cfg := New()
	cfg.Policy.ChangelogPath = " docs/CHANGES.md\t"
	cfg.Policy.ExemptionLabel = " skip-changelog "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	pc := cfg.PolicyConfig()
	if pc.ChangelogPath != "docs/CHANGES.md" {
		t.Fatalf("ChangelogPath: want %q, got %q", "docs/CHANGES.md", pc.ChangelogPath)
	}
	if pc.ExemptionLabel != "skip-changelog" {
		t.Fatalf("ExemptionLabel: want %q, got %q", "skip-changelog", pc.ExemptionLabel)
	}
}

func TestValidate_InfersOutFormat(t *testing.T) {
	for path, want := range map[string]string{
		"out/result.json":   "json",
		"out/result.ndjson": "ndjson",
		"out/result.jsonl":  "ndjson",
	} {
		cfg := New()
		cfg.Output.Out = path
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: Validate() error: %v", path, err)
		}
		if cfg.Output.OutFormat != want {
			t.Fatalf("%s: expected %s, got %s", path, want, cfg.Output.OutFormat)
		}
	}
}

func TestValidate_NormalizesRepo(t *testing.T) {
	tests := map[string]string{
		"acme/widgets":                        "acme/widgets",
		"https://github.com/acme/widgets":     "acme/widgets",
		"github.com/acme/widgets.git":         "acme/widgets",
		"https://github.com/acme/widgets/pull": "acme/widgets",
	}
	for in, want := range tests {
		cfg := New()
		cfg.Target.Repo = in
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: Validate() error: %v", in, err)
		}
		if cfg.Target.Repo != want {
			t.Fatalf("%s: expected %s, got %s", in, want, cfg.Target.Repo)
		}
	}
}

func TestParsePullRequestSelector(t *testing.T) {
	tests := []struct {
		in       string
		wantRepo string
		wantNum  int
		wantErr  bool
	}{
		{in: "", wantNum: 0},
		{in: "42", wantNum: 42},
		{in: "#7", wantNum: 7},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "https://github.com/acme/widgets/pull/12", wantRepo: "acme/widgets", wantNum: 12},
		{in: "github.com/acme/widgets/pull/12/files", wantRepo: "acme/widgets", wantNum: 12},
		{in: "https://github.com/acme/widgets/issues/12", wantErr: true},
		{in: "https://github.com/acme/widgets/pull/abc", wantErr: true},
		{in: "not a url", wantErr: true},
	}
	for _, tt := range tests {
		repo, num, err := ParsePullRequestSelector(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if repo != tt.wantRepo || num != tt.wantNum {
			t.Fatalf("%q: got (%q, %d), want (%q, %d)", tt.in, repo, num, tt.wantRepo, tt.wantNum)
		}
	}
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := SplitRepo("acme/widgets")
	if err != nil || owner != "acme" || name != "widgets" {
		t.Fatalf("unexpected split: %q %q %v", owner, name, err)
	}
	for _, bad := range []string{"", "acme", "/widgets", "acme/", "a/b/c"} {
		if _, _, err := SplitRepo(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
