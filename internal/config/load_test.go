package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"changelogcheck/internal/flags"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		file    string
		ext     string
		env     map[string]string
		changed []string
		check   func(t *testing.T, cfg *Config)
	}{
		"defaults when nothing is configured": {
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, New(), cfg)
			},
		},
		"yaml file overrides defaults": {
			file: "changelog_required: false\nexemption_label: skip-changelog\nchangelog_path: docs/CHANGES.md\nemit: [json, ndjson]\ntimeout: 30s\n",
			ext:  ".yml",
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Policy.Required)
				assert.Equal(t, "skip-changelog", cfg.Policy.ExemptionLabel)
				assert.Equal(t, "docs/CHANGES.md", cfg.Policy.ChangelogPath)
				assert.Equal(t, []string{"json", "ndjson"}, cfg.Output.Emit)
				assert.Equal(t, 30*time.Second, cfg.Runtime.Timeout)
			},
		},
		"json file is parsed by extension": {
			file: `{"exemption_label": "no-changelog", "paths_from": "git", "timeout": 45}`,
			ext:  ".json",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "no-changelog", cfg.Policy.ExemptionLabel)
				assert.Equal(t, SourceGit, cfg.Sources.Paths)
				assert.Equal(t, 45*time.Second, cfg.Runtime.Timeout)
			},
		},
		"environment overrides file": {
			file: "exemption_label: from-file\n",
			ext:  ".yml",
			env: map[string]string{
				"CHANGELOGCHECK_EXEMPTION_LABEL":     "from-env",
				"CHANGELOGCHECK_CHANGELOG_REQUIRED": "false",
				"CHANGELOGCHECK_EMIT":               "ndjson,json",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-env", cfg.Policy.ExemptionLabel)
				assert.False(t, cfg.Policy.Required)
				assert.Equal(t, []string{"ndjson", "json"}, cfg.Output.Emit)
			},
		},
		"changed flags win over environment": {
			env:     map[string]string{"CHANGELOGCHECK_EXEMPTION_LABEL": "from-env"},
			changed: []string{flags.FlagExemptionLabel},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "allow-no-changelog", cfg.Policy.ExemptionLabel)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			opts := LoadOptions{}
			if tt.file != "" {
				opts.Path = writeFile(t, "changelogcheck"+tt.ext, tt.file)
				opts.Explicit = true
			}
			if len(tt.changed) > 0 {
				opts.Changed = func(flag string) bool {
					for _, c := range tt.changed {
						if c == flag {
							return true
						}
					}
					return false
				}
			}

			cfg := New()
			require.NoError(t, Load(cfg, opts))
			tt.check(t, cfg)
		})
	}
}

func TestLoad_DefaultFileIsOptional(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := New()
	require.NoError(t, Load(cfg, LoadOptions{}))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".github"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("changelog_path: CHANGES.md\n"), 0o644))

	cfg = New()
	require.NoError(t, Load(cfg, LoadOptions{}))
	assert.Equal(t, "CHANGES.md", cfg.Policy.ChangelogPath)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("explicit file must exist", func(t *testing.T) {
		err := Load(New(), LoadOptions{Path: filepath.Join(t.TempDir(), "missing.yml"), Explicit: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing.yml")
	})

	t.Run("invalid bool from env", func(t *testing.T) {
		t.Setenv("CHANGELOGCHECK_CHANGELOG_REQUIRED", "maybe")
		err := Load(New(), LoadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "changelog_required")
	})

	t.Run("invalid duration from file", func(t *testing.T) {
		path := writeFile(t, "c.yml", "timeout: soon\n")
		err := Load(New(), LoadOptions{Path: path, Explicit: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("nil config", func(t *testing.T) {
		require.Error(t, Load(nil, LoadOptions{}))
	})
}
