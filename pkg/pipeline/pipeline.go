// Package pipeline provides the traverse → render → publish pipeline for
// annograph.
//
// It wires a [config.Config] into the engine (fetcher, JSON-LD expander,
// normalizer, coordinator) so that the CLI and the HTTP server build
// traversals the same way and avoid duplicating that logic.
//
// # Architecture
//
// A run has three stages:
//
//  1. Traverse: follow links from the root URIs until nothing is outstanding
//  2. Render: turn the registry snapshot into artifacts (JSON, DOT, SVG)
//  3. Publish: hand the snapshot to the configured [sink.Sink]
//
// # Usage
//
//	runner, err := pipeline.NewRunner(cfg, sink, logger)
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    URIs:    []string{"https://example.org/annotations/1"},
//	    Formats: []string{pipeline.FormatDOT},
//	})
//	dot := result.Artifacts[pipeline.FormatDOT]
//
// The server keeps coordinators alive between requests and only uses
// [Runner.NewCoordinator] and [Render].
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/registry"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options contains the configuration of one pipeline run.
type Options struct {
	// URIs are the roots of the traversal. At least one is required.
	URIs []string `json:"uris"`
	// RunID names the run in sinks. Defaults to a random UUID.
	RunID string `json:"run_id,omitempty"`
	// Formats lists the artifacts to render. Empty renders nothing.
	Formats []string `json:"formats,omitempty"`
	// Detailed adds types and labels to graph nodes.
	Detailed bool `json:"detailed,omitempty"`

	Logger *log.Logger `json:"-"`

	// Progress, if set, is called periodically while the traversal runs.
	Progress func(Progress) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Progress reports the registry while a traversal is running.
type Progress struct {
	registry.Counts
	InFlight int `json:"in_flight"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the registry content at completion.
	Snapshot *registry.Snapshot

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Resources    int
	Failures     int
	MusicTargets int
	AudioTargets int
	TraverseTime time.Duration
	RenderTime   time.Duration
	PublishTime  time.Duration
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.URIs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one URI is required")
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func newStats(s *registry.Snapshot) Stats {
	return Stats{
		Resources:    len(s.Resources),
		Failures:     len(s.Failures),
		MusicTargets: len(s.MusicTargets),
		AudioTargets: len(s.AudioTargets),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d resources, %d failures, %d music targets, %d audio targets",
		s.Resources, s.Failures, s.MusicTargets, s.AudioTargets)
}
