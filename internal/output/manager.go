package output

import (
	"errors"
	"fmt"
)

// Sink receives check results and lifecycle events.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans every result and event out to all attached sinks. A failing
// sink does not stop delivery to the others.
type Manager struct {
	sinks  []Sink
	closed bool
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	if s == nil {
		return errors.New("sink must not be nil")
	}
	if m.closed {
		return errors.New("output manager is closed")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Len reports how many sinks are attached.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sinks)
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	if m.closed {
		return errors.New("output manager is closed")
	}
	return m.each("errors writing to sinks", "write", func(s Sink) error { return s.Write(v) })
}

// Close closes every sink once. Sinks that aggregate (json, summary) write
// their output here. Later calls are no-ops.
func (m *Manager) Close() error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	if m.closed {
		return nil
	}
	m.closed = true
	return m.each("errors closing sinks", "close", Sink.Close)
}

func (m *Manager) each(summary, op string, fn func(Sink) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, fmt.Errorf("%s %T: %w", op, s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", summary, errors.Join(errs...))
	}
	return nil
}
