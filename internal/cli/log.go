// Package cli implements the pedigree command-line interface.
//
// The commands read pedigree documents (JSON or TOML), compute layouts,
// draw them, and serve the same pipeline over HTTP. The CLI is built with
// cobra; output styling uses lipgloss and logging charmbracelet/log.
//
// # Commands
//
//   - layout: compute a layout and write <input>.layout.json
//   - render: lay out and draw as SVG, PNG, PDF, DOT or JSON
//   - serve: run the HTTP API backed by Redis, MongoDB or the local cache
//   - cache: clear or locate the local cache
//   - config: show the effective configuration
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/pedigree/config.toml (or --config).
// Flags given on the command line override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports pipeline and cache events. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI's logger: timestamps to the hundredth of a
// second, filtered at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command step. It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time, e.g.
// "Laid out 12 individuals elapsed=4ms".
func (p *progress) done(msg string, keyvals ...any) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type ctxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger stored by withLogger, or the
// package default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
