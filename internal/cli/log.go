// Package cli implements the annograph command-line interface.
//
// This package provides commands for traversing annotation graphs, serving
// them over HTTP, and managing the configuration file. The CLI is built using
// cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - traverse: Follow an annotation graph and report what it points at
//   - serve: Run the HTTP API (and optionally serve local test documents)
//   - config: Write, locate or print the configuration file
//
// # Logging
//
// Engine diagnostics (skipped references, abandoned documents) are logged
// at warn level and shown by default. --verbose adds per-cycle debug output;
// --quiet keeps only errors.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/annograph/pkg/errors"
)

// Exit codes returned by [ExitCode].
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitNothingRead = 2   // no document of the traversal could be loaded
	ExitInterrupted = 130 // shell convention for SIGINT
)

// newLogger creates a logger with short timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// LevelFor maps the --verbose and --quiet flags to a log level.
// verbose wins when both are set.
func LevelFor(verbose, quiet bool) log.Level {
	switch {
	case verbose:
		return LogDebug
	case quiet:
		return LogQuiet
	default:
		return LogInfo
	}
}

// ExitCode maps the error returned by a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errors.ErrCodeNotFound):
		return ExitNothingRead
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// progress logs how long an operation took once it is done.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Traversed 4 resources, ... (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
