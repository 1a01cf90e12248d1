package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"changelogcheck/internal/policy"

	"github.com/fatih/color"
)

var statusColors = map[policy.Status]*color.Color{
	policy.StatusPass:    color.New(color.FgGreen, color.Bold),
	policy.StatusFail:    color.New(color.FgRed, color.Bold),
	policy.StatusSkipped: color.New(color.FgYellow),
	policy.StatusError:   color.New(color.FgMagenta, color.Bold),
}

type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	results []policy.Result // For JSON array output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{
		writer:  w,
		format:  format,
		results: []policy.Result{},
	}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	switch s.format {
	case "json":
		r, ok := v.(policy.Result)
		if !ok {
			// Ignore non-result events in JSON console mode.
			return nil
		}
		s.results = append(s.results, r)
		return nil
	case "ndjson":
		return encodeEvent(s.writer, v)
	case "text":
		r, ok := v.(policy.Result)
		if !ok {
			return nil
		}
		if err := s.writeText(r); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

// writeText prints "[STATUS] owner/repo#N - reason".
func (s *ConsoleSink) writeText(r policy.Result) error {
	label := fmt.Sprintf("[%s]", r.Status)
	if c, ok := statusColors[r.Status]; ok {
		label = c.Sprint(label)
	}
	if _, err := fmt.Fprint(s.writer, label); err != nil {
		return err
	}
	if target := resultTarget(r); target != "" {
		if _, err := fmt.Fprintf(s.writer, " %s", target); err != nil {
			return err
		}
	}
	if r.Reason != "" {
		if _, err := fmt.Fprintf(s.writer, " - %s", r.Reason); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(s.writer)
	return err
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		return encodeResults(s.writer, s.results)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

func resultTarget(r policy.Result) string {
	switch {
	case r.Repo != "" && r.PullRequest > 0:
		return fmt.Sprintf("%s#%d", r.Repo, r.PullRequest)
	case r.Repo != "":
		return r.Repo
	case r.PullRequest > 0:
		return fmt.Sprintf("#%d", r.PullRequest)
	}
	return ""
}
