package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/pipeline"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/render/nodelink"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/traverse"
)

// FixturePrefix is the route under which test documents are served.
const FixturePrefix = "/static/test"

// Run retention defaults.
const (
	DefaultMaxRuns = 100
	DefaultRunTTL  = time.Hour
)

// FixtureTypes maps served file extensions to their Content-Type.
// Files with any other extension are refused.
var FixtureTypes = map[string]string{
	".jsonld": "application/ld+json",
	".json":   "application/json",
	".ttl":    "text/turtle",
	".mei":    "application/xml",
	".xml":    "application/xml",
	".mp3":    "audio/mpeg",
	".wav":    "audio/wav",
	".ogg":    "audio/ogg",
}

// Options configures the HTTP server.
type Options struct {
	// Runner builds a fresh coordinator for every traversal and receives
	// the snapshot of every completed run in its sink. Required.
	Runner *pipeline.Runner
	// FixturesDir is served under [FixturePrefix]. Empty disables the route.
	FixturesDir string
	// Metrics serves /metrics. Nil uses promhttp.Handler().
	Metrics http.Handler
	// Logger receives request and run logs. Nil uses log.Default().
	Logger *log.Logger
	// MaxRuns caps the runs kept in memory. When the cap is reached the
	// oldest completed runs are dropped; a start with every slot still
	// running is refused with 503. Zero uses DefaultMaxRuns.
	MaxRuns int
	// RunTTL is how long a completed run stays queryable. Zero uses
	// DefaultRunTTL.
	RunTTL time.Duration
}

// run is one traversal started through the API.
type run struct {
	ID      string
	Root    string
	Created time.Time
	coord   *traverse.Coordinator

	completed time.Time // zero while running; guarded by server.mu
}

type server struct {
	runner   *pipeline.Runner
	fixtures string
	logger   *log.Logger
	maxRuns  int
	runTTL   time.Duration

	mu   sync.RWMutex
	runs map[string]*run
}

// New returns the HTTP handler:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /static/test/*                       fixture documents (HEAD too)
//	GET  /api/traversals                      run ids
//	POST /api/traversals?uri=...              start a traversal
//	GET  /api/traversals/{id}                 status
//	GET  /api/traversals/{id}/resources       compacted resources by URI
//	GET  /api/traversals/{id}/targets/{kind}  merged media targets
//	GET  /api/traversals/{id}/bodies          textual bodies
//	GET  /api/traversals/{id}/failures        failed URIs
//	GET  /api/traversals/{id}/graph.dot       node-link diagram
func New(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	if opts.MaxRuns <= 0 {
		opts.MaxRuns = DefaultMaxRuns
	}
	if opts.RunTTL <= 0 {
		opts.RunTTL = DefaultRunTTL
	}
	s := &server{
		runner:   opts.Runner,
		fixtures: opts.FixturesDir,
		logger:   opts.Logger,
		maxRuns:  opts.MaxRuns,
		runTTL:   opts.RunTTL,
		runs:     make(map[string]*run),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics)

	if s.fixtures != "" {
		r.Get(FixturePrefix+"/*", s.handleFixture)
		r.Head(FixturePrefix+"/*", s.handleFixture)
	}

	r.Route("/api/traversals", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleStart)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withRun)
			r.Get("/", s.handleStatus)
			r.Get("/resources", s.handleResources)
			r.Get("/targets/{kind}", s.handleTargets)
			r.Get("/bodies", s.handleBodies)
			r.Get("/failures", s.handleFailures)
			r.Get("/graph.dot", s.handleGraph)
		})
	})

	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

// handleFixture serves a file below the fixtures directory with the
// Content-Type its extension maps to.
func (s *server) handleFixture(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if err := errors.ValidatePath(name); err != nil {
		writeError(w, err)
		return
	}
	ct, ok := FixtureTypes[path.Ext(name)]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "File type not supported"})
		return
	}
	w.Header().Set("Content-Type", ct)
	http.ServeFile(w, r, filepath.Join(s.fixtures, filepath.FromSlash(name)))
}

func (s *server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// handleStart begins a traversal on a fresh coordinator and answers
// immediately. The traversal outlives the request.
func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if _, err := errors.ParseHTTPURI(uri); err != nil {
		writeError(w, err)
		return
	}

	rn := &run{
		ID:      uuid.NewString(),
		Root:    uri,
		Created: time.Now().UTC(),
	}
	rn.coord = s.runner.NewCoordinator(s.logger.With("run", rn.ID))

	ctx := context.WithoutCancel(r.Context())
	rn.coord.OnComplete(func() {
		if err := s.runner.Sink.Write(ctx, rn.coord.Snapshot(rn.ID)); err != nil {
			s.logger.Error("write snapshot", "run", rn.ID, "err", err)
		}
		s.mu.Lock()
		rn.completed = time.Now()
		s.mu.Unlock()
	})

	if !s.admit(rn) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "too many traversals in progress"})
		return
	}

	rn.coord.Traverse(ctx, uri)

	w.Header().Set("Location", "/api/traversals/"+rn.ID)
	writeJSON(w, http.StatusAccepted, newStatus(rn))
}

// admit stores rn after dropping expired runs and, if the cap is still
// reached, the oldest completed ones. It reports false when every kept run
// is still in progress.
func (s *server) admit(rn *run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var done []*run
	for id, old := range s.runs {
		if old.completed.IsZero() {
			continue
		}
		if now.Sub(old.completed) > s.runTTL {
			delete(s.runs, id)
			s.logger.Debug("run expired", "run", id)
			continue
		}
		done = append(done, old)
	}
	if len(s.runs) >= s.maxRuns {
		slices.SortFunc(done, func(a, b *run) int { return a.completed.Compare(b.completed) })
		for _, old := range done {
			if len(s.runs) < s.maxRuns {
				break
			}
			delete(s.runs, old.ID)
			s.logger.Debug("run evicted", "run", old.ID)
		}
	}
	if len(s.runs) >= s.maxRuns {
		return false
	}
	s.runs[rn.ID] = rn
	return true
}

type runKey struct{}

// withRun resolves {id} and stores the run in the request context.
func (s *server) withRun(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.RLock()
		rn, ok := s.runs[id]
		s.mu.RUnlock()
		if !ok {
			writeError(w, errors.New(errors.ErrCodeNotFound, "no traversal %q", id))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), runKey{}, rn)))
	})
}

func runFrom(r *http.Request) *run {
	return r.Context().Value(runKey{}).(*run)
}

type status struct {
	ID       string    `json:"id"`
	Root     string    `json:"root"`
	Created  time.Time `json:"created"`
	State    string    `json:"state"`
	InFlight int       `json:"in_flight"`
	Runs     int       `json:"runs"`
	Ready    int       `json:"ready"`
	Pending  int       `json:"pending"`
	Failed   int       `json:"failed"`
}

func newStatus(rn *run) status {
	counts := rn.coord.Registry().Counts()
	return status{
		ID:       rn.ID,
		Root:     rn.Root,
		Created:  rn.Created,
		State:    rn.coord.State().String(),
		InFlight: rn.coord.InFlight(),
		Runs:     rn.coord.Runs(),
		Ready:    counts.Ready,
		Pending:  counts.Pending,
		Failed:   counts.Failed,
	}
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatus(runFrom(r)))
}

func (s *server) handleResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, runFrom(r).coord.Registry().All())
}

func (s *server) handleTargets(w http.ResponseWriter, r *http.Request) {
	kind, ok := resource.ParseMediaKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown media kind %q", chi.URLParam(r, "kind")))
		return
	}
	writeJSON(w, http.StatusOK, runFrom(r).coord.Registry().MediaTargets(kind))
}

type body struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

func (s *server) handleBodies(w http.ResponseWriter, r *http.Request) {
	nodes := runFrom(r).coord.Registry().TextualBodies()
	out := make([]body, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, body{ID: n.ID, Text: n.Text()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleFailures(w http.ResponseWriter, r *http.Request) {
	failures := runFrom(r).coord.Registry().Failures()
	if failures == nil {
		failures = []registry.Failure{}
	}
	writeJSON(w, http.StatusOK, failures)
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	rn := runFrom(r)
	dot := nodelink.ToDOT(rn.coord.Snapshot(rn.ID), nodelink.Options{
		Namespaces: s.runner.Namespaces(),
		Detailed:   r.URL.Query().Get("detailed") == "true",
	})
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the HTTP status matching the error code and a
// {"error", "code"} body.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	httpStatus := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeMalformedURI:
		httpStatus = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		httpStatus = http.StatusNotFound
	}
	writeJSON(w, httpStatus, map[string]string{"error": errors.UserMessage(err), "code": string(code)})
}
