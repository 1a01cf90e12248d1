package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"changelogcheck/internal/flags"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix namespaces environment overrides, e.g.
	// CHANGELOGCHECK_EXEMPTION_LABEL=skip-changelog.
	EnvPrefix = "CHANGELOGCHECK_"

	// DefaultFile is read when present and --config is not given.
	DefaultFile = ".github/changelogcheck.yml"
)

// LoadOptions configures how file and environment layers are applied.
type LoadOptions struct {
	// Path is the config file. An explicit path must exist; the default
	// path is optional.
	Path string

	// Explicit marks Path as user-provided.
	Explicit bool

	// Changed reports whether a flag was set on the command line. Values for
	// changed flags are never overridden. Nil means no flags were set.
	Changed func(flag string) bool
}

type setting struct {
	key  string
	flag string
	set  func(c *Config, v any) error
}

// settings maps file/env keys to config fields. Keys are the flag names
// with dashes replaced by underscores.
var settings = []setting{
	{"changelog_required", flags.FlagChangelogRequired, func(c *Config, v any) (err error) {
		c.Policy.Required, err = asBool(v)
		return err
	}},
	{"exemption_label", flags.FlagExemptionLabel, func(c *Config, v any) error {
		c.Policy.ExemptionLabel = asString(v)
		return nil
	}},
	{"changelog_path", flags.FlagChangelogPath, func(c *Config, v any) error {
		c.Policy.ChangelogPath = asString(v)
		return nil
	}},
	{"repo", flags.FlagRepo, func(c *Config, v any) error {
		c.Target.Repo = asString(v)
		return nil
	}},
	{"labels_from", flags.FlagLabelsFrom, func(c *Config, v any) error {
		c.Sources.Labels = asString(v)
		return nil
	}},
	{"paths_from", flags.FlagPathsFrom, func(c *Config, v any) error {
		c.Sources.Paths = asString(v)
		return nil
	}},
	{"git_dir", flags.FlagGitDir, func(c *Config, v any) error {
		c.Sources.GitDir = asString(v)
		return nil
	}},
	{"api_url", flags.FlagAPIURL, func(c *Config, v any) error {
		c.Sources.APIURL = asString(v)
		return nil
	}},
	{"console_format", flags.FlagConsoleFormat, func(c *Config, v any) error {
		c.Output.ConsoleFormat = asString(v)
		return nil
	}},
	{"out", flags.FlagOut, func(c *Config, v any) error {
		c.Output.Out = asString(v)
		return nil
	}},
	{"out_format", flags.FlagOutFormat, func(c *Config, v any) error {
		c.Output.OutFormat = asString(v)
		return nil
	}},
	{"emit", flags.FlagEmit, func(c *Config, v any) error {
		c.Output.Emit = asStrings(v)
		return nil
	}},
	{"no_console", flags.FlagNoConsole, func(c *Config, v any) (err error) {
		c.Output.NoConsole, err = asBool(v)
		return err
	}},
	{"summary", flags.FlagSummary, func(c *Config, v any) error {
		c.Output.Summary = asString(v)
		return nil
	}},
	{"annotate", flags.FlagAnnotate, func(c *Config, v any) (err error) {
		c.Output.Annotate, err = asBool(v)
		return err
	}},
	{"timeout", flags.FlagTimeout, func(c *Config, v any) (err error) {
		c.Runtime.Timeout, err = asDuration(v)
		return err
	}},
	{"verbose", flags.FlagVerbose, func(c *Config, v any) (err error) {
		c.Runtime.Verbose, err = asBool(v)
		return err
	}},
}

// Load layers the config file and CHANGELOGCHECK_* environment variables on
// top of cfg. Precedence: flags > environment > file > defaults.
func Load(cfg *Config, opts LoadOptions) error {
	if cfg == nil {
		return errors.New("config: nil Config")
	}
	k := koanf.New(".")

	if err := loadFile(k, opts.Path, opts.Explicit); err != nil {
		return err
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}

	changed := opts.Changed
	if changed == nil {
		changed = func(string) bool { return false }
	}
	for _, s := range settings {
		if !k.Exists(s.key) || changed(s.flag) {
			continue
		}
		if err := s.set(cfg, k.Get(s.key)); err != nil {
			return fmt.Errorf("invalid value for %s: %w", s.key, err)
		}
	}
	return nil
}

func loadFile(k *koanf.Koanf, path string, explicit bool) error {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}

	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return nil
}

// envTransform converts environment variable names to config keys.
// Example: CHANGELOGCHECK_EXEMPTION_LABEL -> exemption_label
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func asBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return strconv.ParseBool(asString(v))
}

func asDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	}
	return time.ParseDuration(asString(v))
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return splitCommaList(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, asString(item))
		}
		return splitCommaList(out)
	default:
		return splitCommaList([]string{asString(v)})
	}
}
