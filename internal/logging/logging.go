// Package logging configures slog for the harness CLI and test helpers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// New returns a logger writing to out. On a terminal it uses tint for
// colorized, human-readable lines; otherwise (CI, piped output) it falls
// back to JSON so log collectors can parse harness output.
func New(out *os.File, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	if term.IsTerminal(int(out.Fd())) {
		return slog.New(tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		}))
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// NewText returns a plain text logger for arbitrary writers. Used by tests
// that capture log output.
func NewText(out io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// Setup installs a default logger for the process.
func Setup(verbose bool) *slog.Logger {
	logger := New(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}
