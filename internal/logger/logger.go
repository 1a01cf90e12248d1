// Package logger configures [slog] for the CLI and carries a logger through
// [context.Context]. Diagnostics always go to stderr so structured output on
// stdout stays clean.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

type ctxKey struct{}

var ctxLoggerKey = ctxKey{}

// New returns a tint-backed logger writing to w (stderr when nil). Colour is
// enabled only when w is a terminal.
func New(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	}))
}

// Init installs a logger as the [slog] default and returns it.
func Init(w io.Writer, verbose bool) *slog.Logger {
	l := New(w, verbose)
	slog.SetDefault(l)
	return l
}

// WithContext returns a derived [context.Context] that points to
// the given parent, and has the given [slog.Logger] attached to it.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, l)
}

// FromContext returns the [slog.Logger] attached to the given
// [context.Context], or [slog.Default] if none is attached.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(ctxLoggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
