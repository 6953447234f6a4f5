package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/annograph/pkg/buildinfo"
	"github.com/matzehuels/annograph/pkg/config"
	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/fetch"
	"github.com/matzehuels/annograph/pkg/httputil"
	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/normalize"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/sink"
	"github.com/matzehuels/annograph/pkg/traverse"
	"github.com/matzehuels/annograph/pkg/vocab"
)

// Runner builds traversal engines from one configuration and runs them.
//
// The HTTP client and the JSON-LD expander (with its remote context cache)
// are shared by every coordinator the runner creates; fetchers, registries
// and probe memos are not. Multiple goroutines can safely use the same
// Runner.
type Runner struct {
	Config *config.Config
	Sink   sink.Sink
	Logger *log.Logger

	ns       *vocab.Namespaces
	rules    normalize.Rules
	client   *http.Client
	expander ld.Expander
}

// NewRunner creates a runner for cfg.
// A nil cfg uses config.Default(), a nil sink discards snapshots.
func NewRunner(cfg *config.Config, s sink.Sink, logger *log.Logger) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		s = sink.NewNullSink()
	}
	if logger == nil {
		logger = log.Default()
	}
	ns, err := vocab.NewNamespaces(cfg.Namespaces)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "namespaces")
	}
	ua := cfg.Fetch.UserAgent
	if ua == "" {
		ua = buildinfo.UserAgent()
	}
	client := httputil.NewClient(cfg.Fetch.Timeout.Std(), ua)
	return &Runner{
		Config:   cfg,
		Sink:     s,
		Logger:   logger,
		ns:       ns,
		rules:    Rules(cfg.Classify),
		client:   client,
		expander: ld.NewGoldExpander(client),
	}, nil
}

// Rules converts the classification tables of a configuration.
// Unknown kinds are skipped; config.Validate rejects them.
func Rules(c config.Classify) normalize.Rules {
	rules := normalize.Rules{Traverse: append([]string(nil), c.TraverseContentTypes...)}
	for _, m := range c.Media {
		kind, ok := resource.ParseMediaKind(m.Kind)
		if !ok {
			continue
		}
		rules.Media = append(rules.Media, normalize.MediaRule{
			Kind:         kind,
			Suffixes:     append([]string(nil), m.Suffixes...),
			ContentTypes: append([]string(nil), m.ContentTypes...),
		})
	}
	return rules
}

// Namespaces returns the prefix table used for compaction and labels.
func (r *Runner) Namespaces() *vocab.Namespaces { return r.ns }

// NewCoordinator creates an engine with an empty registry.
func (r *Runner) NewCoordinator(logger *log.Logger) *traverse.Coordinator {
	if logger == nil {
		logger = r.Logger
	}
	f := fetch.New(r.client, fetch.Options{
		Accept:       r.Config.Fetch.Accept,
		MaxBodyBytes: r.Config.Fetch.MaxBodyBytes,
		Logger:       logger,
	})
	rules := r.rules
	n := normalize.New(r.expander, f, normalize.Options{
		Namespaces:       r.ns,
		Rules:            &rules,
		ProbeConcurrency: r.Config.Classify.ProbeConcurrency,
		Logger:           logger,
	})
	return traverse.New(f, n, traverse.Options{Logger: logger})
}

// Execute runs the complete traverse → render → publish pipeline.
//
// A root that fails to load still completes the run; its failure is part
// of the snapshot. Execute only fails when no root is usable, the context
// ends first, or rendering or publishing fails.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	// Stage 1: Traverse
	start := time.Now()
	coord := r.NewCoordinator(opts.Logger)
	if coord.Traverse(ctx, opts.URIs...) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no valid root URI in %q", opts.URIs)
	}
	if err := wait(ctx, coord, opts.Progress); err != nil {
		return nil, err
	}
	snap := coord.Snapshot(opts.RunID)
	result := &Result{Snapshot: snap, Stats: newStats(snap)}
	result.Stats.TraverseTime = time.Since(start)

	r.Logger.Debug("snapshot captured",
		"run", opts.RunID,
		"resources", result.Stats.Resources,
		"failures", result.Stats.Failures,
		"duration", result.Stats.TraverseTime)

	// Stage 2: Render
	start = time.Now()
	artifacts, err := Render(snap, r.ns, opts.Formats, opts.Detailed)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)

	// Stage 3: Publish
	start = time.Now()
	if err := r.Sink.Write(ctx, snap); err != nil {
		return result, errors.Wrap(errors.ErrCodeInternal, err, "write snapshot")
	}
	result.Stats.PublishTime = time.Since(start)

	return result, nil
}

// progressInterval is how often Execute reports progress.
const progressInterval = 250 * time.Millisecond

// wait blocks until coord completes its run or ctx ends, reporting progress
// along the way when fn is set.
func wait(ctx context.Context, coord *traverse.Coordinator, fn func(Progress)) error {
	if fn == nil {
		return coord.Wait(ctx)
	}
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	done := coord.Done()
	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(Progress{Counts: coord.Registry().Counts(), InFlight: coord.InFlight()})
		}
	}
}

// Close releases resources held by the runner (primarily the sink).
func (r *Runner) Close() error {
	if r.Sink != nil {
		return r.Sink.Close()
	}
	return nil
}
