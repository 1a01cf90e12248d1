package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"changelogcheck/internal/policy"
)

// AnnotationSink writes GitHub Actions workflow commands so failures show
// up as annotations on the pull request.
type AnnotationSink struct {
	writer        io.Writer
	changelogPath string
	mu            sync.Mutex
}

func NewAnnotationSink(w io.Writer, changelogPath string) *AnnotationSink {
	if w == nil {
		w = os.Stdout
	}
	return &AnnotationSink{writer: w, changelogPath: changelogPath}
}

func (s *AnnotationSink) Write(v any) error {
	r, ok := v.(policy.Result)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var line string
	switch r.Status {
	case policy.StatusFail:
		props := map[string]string{"title": "Changelog not updated"}
		if s.changelogPath != "" {
			props["file"] = s.changelogPath
		}
		line = workflowCommand("error", props, r.Reason)
	case policy.StatusError:
		line = workflowCommand("error", map[string]string{"title": "Changelog check error"}, r.Reason)
	case policy.StatusSkipped:
		line = workflowCommand("notice", map[string]string{"title": "Changelog check skipped"}, r.Reason)
	default:
		return nil
	}
	if _, err := fmt.Fprintln(s.writer, line); err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}

func (s *AnnotationSink) Close() error {
	return nil
}

// workflowCommand formats ::name key=value,...::message with property keys
// in a fixed order (file before title).
func workflowCommand(name string, props map[string]string, message string) string {
	var b strings.Builder
	b.WriteString("::")
	b.WriteString(name)
	first := true
	for _, key := range []string{"file", "title"} {
		val, ok := props[key]
		if !ok {
			continue
		}
		if first {
			b.WriteString(" ")
			first = false
		} else {
			b.WriteString(",")
		}
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(escapeProperty(val))
	}
	b.WriteString("::")
	b.WriteString(escapeData(message))
	return b.String()
}

func escapeData(s string) string {
	r := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	return r.Replace(s)
}

func escapeProperty(s string) string {
	r := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
	return r.Replace(s)
}
