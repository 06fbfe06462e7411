// Package logging builds the slog.Logger shared by all binaries. Records are
// rendered by charmbracelet/log and always go to w (stderr in practice), since
// stdout carries transcripts and protocol lines.
package logging

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"

	"github.com/chaz8081/gostt-worker/internal/config"
)

// New returns a logger writing to w at the given level name
// (debug, info, warn, error).
func New(w io.Writer, level, prefix string) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(config.ParseLogLevel(level)),
		Prefix:          prefix,
		ReportTimestamp: true,
	})
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
