package traverse

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/normalize"
	"github.com/matzehuels/annograph/pkg/observability"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
)

// Fetcher retrieves the raw document behind a canonical URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*resource.RawDocument, error)
}

// State is the lifecycle of a Coordinator.
type State int

const (
	NotStarted State = iota
	Running
	Complete
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "not-started"
	}
}

// Options configures a Coordinator.
type Options struct {
	// Registry receives every discovered resource. Nil creates a fresh one.
	Registry *registry.Registry
	// Logger receives cycle diagnostics. Nil uses log.Default().
	Logger *log.Logger
}

// Coordinator runs fetch-and-normalize cycles for a growing set of URIs and
// signals completion when none are outstanding.
//
// A run starts when the first cycle is spawned and ends when the set of
// outstanding cycles becomes empty again. Cycles add the URIs they discover
// to the set before leaving it themselves, so the set can only drain once
// every reachable document has been registered or abandoned.
type Coordinator struct {
	fetcher Fetcher
	norm    *normalize.Normalizer
	reg     *registry.Registry
	logger  *log.Logger

	mu          sync.Mutex
	state       State
	outstanding map[string]struct{}
	done        chan struct{}
	callbacks   []func()
	runs        int
	root        string
	started     time.Time
}

// New creates a Coordinator. Each Coordinator owns one registry and is meant
// for one traversal session; create another for an independent traversal.
func New(f Fetcher, n *normalize.Normalizer, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Registry == nil {
		opts.Registry = registry.New(opts.Logger)
	}
	return &Coordinator{
		fetcher:     f,
		norm:        n,
		reg:         opts.Registry,
		logger:      opts.Logger,
		outstanding: make(map[string]struct{}),
		done:        make(chan struct{}),
	}
}

// Registry returns the registry the coordinator writes to.
func (c *Coordinator) Registry() *registry.Registry { return c.reg }

// OnComplete registers fn to be called once at the end of every run, after
// the last outstanding cycle has registered or abandoned its resource.
// Callbacks run on the goroutine that finished the last cycle.
func (c *Coordinator) OnComplete(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Traverse starts one cycle per URI not yet known to the registry and
// returns how many it started. URIs are canonicalized by dropping their
// fragment; malformed URIs are logged and skipped. Calling Traverse while a
// run is in progress extends it; calling it after completion starts a new
// run. A call that starts no cycle leaves the state unchanged and never
// fires completion.
func (c *Coordinator) Traverse(ctx context.Context, uris ...string) int {
	started := 0
	for _, raw := range uris {
		u, err := errors.ParseHTTPURI(raw)
		if err != nil {
			c.logger.Warn("skipping URI", "uri", raw, "code", errors.GetCode(err), "err", errors.UserMessage(err))
			continue
		}
		uri, _ := resource.Strip(u)
		if !c.reg.Reserve(uri) {
			c.logger.Debug("already known", "uri", uri)
			continue
		}
		c.begin(uri)
		started++
		go c.cycle(ctx, uri)
	}
	return started
}

func (c *Coordinator) begin(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running {
		if c.state == Complete {
			c.done = make(chan struct{})
		}
		c.state = Running
		c.started = time.Now()
		if c.root == "" {
			c.root = uri
		}
	}
	c.outstanding[uri] = struct{}{}
}

func (c *Coordinator) cycle(ctx context.Context, uri string) {
	hooks := observability.Traversal()
	hooks.OnCycleStart(ctx, uri)
	start := time.Now()

	err := c.process(ctx, uri)
	if err != nil {
		c.reg.Fail(uri, err)
		c.logger.Warn("abandoned", "uri", uri, "code", errors.GetCode(err), "err", errors.UserMessage(err))
	}

	hooks.OnCycleEnd(ctx, uri, time.Since(start), err)
	c.finish(ctx, uri)
}

// process fetches, normalizes, classifies and registers uri, then hands the
// discovered candidates back to Traverse before returning.
func (c *Coordinator) process(ctx context.Context, uri string) error {
	raw, err := c.fetcher.Fetch(ctx, uri)
	if err != nil {
		return err
	}
	res, err := c.norm.Normalize(ctx, raw)
	if err != nil {
		return err
	}
	res.URI = uri

	cls := c.norm.Classify(ctx, res)
	queue := c.norm.Triage(ctx, res, cls.Candidates)

	for _, id := range cls.Blanks {
		c.reg.RegisterBlank(uri, id)
	}
	c.reg.Register(uri, res)
	c.logger.Debug("registered", "uri", uri, "targets", len(res.Targets), "queued", len(queue))

	c.Traverse(ctx, queue...)
	return nil
}

func (c *Coordinator) finish(ctx context.Context, uri string) {
	c.mu.Lock()
	delete(c.outstanding, uri)
	if len(c.outstanding) > 0 || c.state != Running {
		c.mu.Unlock()
		return
	}
	c.state = Complete
	c.runs++
	done := c.done
	callbacks := append([]func(){}, c.callbacks...)
	elapsed := time.Since(c.started)
	c.mu.Unlock()

	counts := c.reg.Counts()
	c.logger.Info("traversal complete", "resources", counts.Ready, "failures", counts.Failed, "duration", elapsed.Round(time.Millisecond))
	observability.Traversal().OnRunComplete(ctx, counts.Ready, counts.Failed, elapsed)

	for _, fn := range callbacks {
		fn()
	}
	close(done)
}

// Done returns a channel closed when the current run completes. Before the
// first run it is the channel of that first run.
func (c *Coordinator) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Wait blocks until the current run completes or ctx is done. A run is
// complete once every OnComplete callback has returned. Wait returns
// immediately when nothing was ever traversed.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	if c.state == NotStarted {
		c.mu.Unlock()
		return nil
	}
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the coordinator's lifecycle state. A run whose callbacks
// are still running reports Running.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Complete {
		select {
		case <-c.done:
		default:
			return Running
		}
	}
	return c.state
}

// InFlight returns the number of outstanding cycles.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outstanding)
}

// Runs returns how many runs have completed.
func (c *Coordinator) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

// Root returns the first URI this coordinator traversed.
func (c *Coordinator) Root() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.root
}

// Snapshot captures the registry together with the coordinator's root URI.
func (c *Coordinator) Snapshot(runID string) *registry.Snapshot {
	return c.reg.Snapshot(runID, c.Root())
}
