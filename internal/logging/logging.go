// Package logging builds the installer's diagnostic logger. Diagnostics
// always go to stderr so stdout carries only user output or the JSON
// document.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Options configures the logger.
type Options struct {
	// Verbose enables debug output, otherwise only warnings and errors are logged.
	Verbose bool

	// Color enables ANSI styling.
	Color bool
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.WarnLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "filastart",
		ReportTimestamp: opts.Verbose,
		TimeFormat:      time.TimeOnly,
	})
	if !opts.Color {
		logger.SetColorProfile(termenv.Ascii)
	}

	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
