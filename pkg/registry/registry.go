package registry

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/vocab"
)

type state int

const (
	statePending state = iota
	stateReady
	stateFailed
)

type entry struct {
	state state
	res   *resource.Resource
	err   error
}

// Registry records every resource discovered by one traversal, keyed by
// canonical URI. A URI has at most one entry: it is reserved before its
// fetch starts and later either registered or failed. Queries only see
// registered resources and are safe to call while cycles are still running.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	blanks  map[string][]string
	logger  *log.Logger
}

// New creates an empty registry. A nil logger uses log.Default().
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		entries: make(map[string]*entry),
		blanks:  make(map[string][]string),
		logger:  logger,
	}
}

// Reserve claims uri for fetching. It returns true exactly once per uri;
// every later call, whether the first is still pending or has finished,
// returns false.
func (r *Registry) Reserve(uri string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[uri]; ok {
		return false
	}
	r.entries[uri] = &entry{state: statePending}
	return true
}

// Register stores res under uri. A uri that is absent or reserved becomes
// ready; a uri that already holds a resource keeps it and the call is
// logged and ignored. Register reports whether res was stored.
func (r *Registry) Register(uri string, res *resource.Resource) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[uri]
	if ok && e.state == stateReady {
		r.logger.Warn("resource already registered", "uri", uri)
		return false
	}
	if !ok {
		e = &entry{}
		r.entries[uri] = e
	}
	e.state, e.res, e.err = stateReady, res, nil
	return true
}

// Fail marks a reserved uri as failed with err. Registered resources are
// never downgraded.
func (r *Registry) Fail(uri string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[uri]
	if ok && e.state == stateReady {
		r.logger.Warn("ignoring failure of registered resource", "uri", uri, "err", err)
		return
	}
	if !ok {
		e = &entry{}
		r.entries[uri] = e
	}
	e.state, e.err = stateFailed, err
}

// RegisterBlank records a blank node identifier owned by the resource at owner.
func (r *Registry) RegisterBlank(owner, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blanks[owner] = append(r.blanks[owner], id)
}

// Blanks returns the blank node identifiers recorded for owner.
func (r *Registry) Blanks(owner string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.blanks[owner])
}

// Resource returns the registered resource at uri.
func (r *Registry) Resource(uri string) (*resource.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[uri]
	if !ok || e.state != stateReady {
		return nil, false
	}
	return e.res, true
}

// Has reports whether uri has any entry, pending or finished.
func (r *Registry) Has(uri string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[uri]
	return ok
}

// Len returns the number of registered resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.state == stateReady {
			n++
		}
	}
	return n
}

// URIs returns the registered URIs in lexical order.
func (r *Registry) URIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readyURIs()
}

func (r *Registry) readyURIs() []string {
	return sortedKeys(r.resources())
}

// All returns the expanded form of every registered resource.
func (r *Registry) All() map[string]map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]map[string]any)
	for uri, e := range r.entries {
		if e.state == stateReady {
			out[uri] = e.res.Expanded
		}
	}
	return out
}

// Resources returns every registered resource, keyed by URI.
func (r *Registry) Resources() map[string]*resource.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources()
}

func (r *Registry) resources() map[string]*resource.Resource {
	out := make(map[string]*resource.Resource)
	for uri, e := range r.entries {
		if e.state == stateReady {
			out[uri] = e.res
		}
	}
	return out
}

// MediaTargets merges the targets of kind across all registered resources.
// The result maps stripped URIs to fragment sets owned by the caller.
func (r *Registry) MediaTargets(kind resource.MediaKind) map[string]resource.FragmentSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mediaTargets(kind)
}

func (r *Registry) mediaTargets(kind resource.MediaKind) map[string]resource.FragmentSet {
	out := make(map[string]resource.FragmentSet)
	for _, e := range r.entries {
		if e.state != stateReady {
			continue
		}
		for uri, t := range e.res.Targets {
			if t.Kind != kind {
				continue
			}
			set, ok := out[uri]
			if !ok {
				set = resource.NewFragmentSet()
				out[uri] = set
			}
			set.Merge(t.Fragments)
		}
	}
	return out
}

// TextualBodies returns every oa:TextualBody found under oa:hasBody of a
// registered resource, ordered by owning URI.
func (r *Registry) TextualBodies() []ld.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textualBodies()
}

func (r *Registry) textualBodies() []ld.Node {
	var out []ld.Node
	for _, uri := range r.readyURIs() {
		for _, body := range r.entries[uri].res.Node.Objects(vocab.HasBody) {
			if body.HasType(vocab.TextualBody) {
				out = append(out, body)
			}
		}
	}
	return out
}

// Failure describes a URI whose cycle ended without registering anything.
type Failure struct {
	URI     string      `json:"uri" bson:"uri"`
	Code    errors.Code `json:"code" bson:"code"`
	Message string      `json:"message" bson:"message"`
	Status  int         `json:"status,omitempty" bson:"status,omitempty"`
}

// Failures returns the failed URIs in lexical order.
func (r *Registry) Failures() []Failure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failures()
}

func (r *Registry) failures() []Failure {
	var out []Failure
	for uri, e := range r.entries {
		if e.state != stateFailed {
			continue
		}
		f := Failure{URI: uri, Code: errors.GetCode(e.err), Status: errors.StatusOf(e.err)}
		if e.err != nil {
			f.Message = errors.UserMessage(e.err)
		}
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Failure) int { return strings.Compare(a.URI, b.URI) })
	return out
}

// Pending returns the URIs reserved but not yet finished.
func (r *Registry) Pending() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for uri, e := range r.entries {
		if e.state == statePending {
			out = append(out, uri)
		}
	}
	slices.Sort(out)
	return out
}

// AllBlanks returns a copy of every owner's blank node list.
func (r *Registry) AllBlanks() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allBlanks()
}

func (r *Registry) allBlanks() map[string][]string {
	out := make(map[string][]string, len(r.blanks))
	for owner, ids := range r.blanks {
		out[owner] = slices.Clone(ids)
	}
	return out
}

// Counts summarizes the registry by entry state.
type Counts struct {
	Ready   int `json:"ready"`
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
}

// Counts returns the number of entries in each state.
func (r *Registry) Counts() Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var c Counts
	for _, e := range r.entries {
		switch e.state {
		case stateReady:
			c.Ready++
		case statePending:
			c.Pending++
		case stateFailed:
			c.Failed++
		}
	}
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
