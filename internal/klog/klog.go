// Package klog implements spec.md §4.N: the one structured-logging seam
// every other package logs through, so that "the core never writes to
// stdout/stderr directly" (spec.md §7) stays true of this reimplementation
// too. Built on log/slog, fanned out with samber/slog-multi the way the
// cucaracha reference emulator's go.mod pulls in slog-multi for its
// hardware console — a stderr text handler always, plus an optional JSON
// file handler when one is configured.
package klog

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures the handler tree New builds.
type Options struct {
	// Level is the minimum level logged to both handlers.
	Level slog.Level
	// FileWriter, if non-nil, receives a JSON-encoded copy of every record
	// in addition to the text one written to Stderr.
	FileWriter io.Writer
}

// New builds the shared *slog.Logger every component is handed down
// through a CLI *Context (spec.md §4.M/§4.N), rather than importing
// log/slog directly.
func New(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, handlerOpts)}
	if opts.FileWriter != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.FileWriter, handlerOpts))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// Discard is a no-op logger for tests and library callers that don't want
// to configure a destination: every record is silently dropped.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
