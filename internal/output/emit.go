package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"changelogcheck/internal/policy"
)

// EmitSink writes additional structured outputs.
//
// Formats:
//   - json: aggregates check results and writes a single JSON array on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer  io.Writer
	format  string // "json" | "ndjson"
	mu      sync.Mutex
	results []policy.Result
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format, results: []policy.Result{}}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		r, ok := v.(policy.Result)
		if !ok {
			// Ignore lifecycle events in JSON aggregate mode.
			return nil
		}
		s.results = append(s.results, r)
		return nil
	case "ndjson":
		return encodeEvent(s.writer, v)
	default:
		return fmt.Errorf("unsupported emit format: %s", s.format)
	}
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		return encodeResults(s.writer, s.results)
	}
	return nil
}

// encodeEvent writes v as one NDJSON line. Results are wrapped in a
// check.result event; anything else is ignored.
func encodeEvent(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	switch t := v.(type) {
	case Event:
		if err := encoder.Encode(t); err != nil {
			return err
		}
	case policy.Result:
		if err := encoder.Encode(eventFromResult(t)); err != nil {
			return err
		}
	default:
		return nil
	}
	return flushIfPossible(w)
}

func encodeResults(w io.Writer, results []policy.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	return flushIfPossible(w)
}

// flushIfPossible pushes buffered output (e.g. a bufio.Writer around
// stdout) so CI logs show each line as it is produced.
func flushIfPossible(w io.Writer) error {
	f, ok := w.(interface{ Flush() error })
	if !ok {
		return nil
	}
	return f.Flush()
}
