// Package observability lets the engine report what it does without
// depending on a metrics backend.
//
// Two hook interfaces cover the events annograph emits: [TraversalHooks]
// for cycles, classification and run completion, and [HTTPHooks] for every
// outgoing request made through httputil. Both default to no-ops. The
// binary installs real implementations once at startup (see the prom
// subpackage); libraries only ever read them:
//
//	observability.Traversal().OnCycleStart(ctx, uri)
//	observability.HTTP().OnResponse(ctx, "GET", host, path, 200, d)
//
// Reads are lock-free, so hooks can sit on hot paths such as the
// per-reference classification loop.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TraversalHooks receives events from the traversal coordinator and the
// normalizer.
type TraversalHooks interface {
	// OnCycleStart and OnCycleEnd bracket one fetch-and-normalize cycle.
	// err is nil when the resource was registered.
	OnCycleStart(ctx context.Context, uri string)
	OnCycleEnd(ctx context.Context, uri string, duration time.Duration, err error)

	// OnRunComplete fires once when the outstanding set drains.
	OnRunComplete(ctx context.Context, resources, failures int, duration time.Duration)

	// OnClassified records one classified reference. outcome is a media kind,
	// "traverse", "opaque", "blank" or "ignored".
	OnClassified(ctx context.Context, outcome string)
}

// HTTPHooks receives events from outgoing HTTP requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure; no response was received.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopTraversalHooks ignores every event.
type NoopTraversalHooks struct{}

func (NoopTraversalHooks) OnCycleStart(context.Context, string)                     {}
func (NoopTraversalHooks) OnCycleEnd(context.Context, string, time.Duration, error) {}
func (NoopTraversalHooks) OnRunComplete(context.Context, int, int, time.Duration)   {}
func (NoopTraversalHooks) OnClassified(context.Context, string)                     {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// hookSet is replaced as a whole on every change.
type hookSet struct {
	traversal TraversalHooks
	http      HTTPHooks
}

var (
	current atomic.Pointer[hookSet]
	writeMu sync.Mutex
)

func init() {
	Reset()
}

func update(fn func(*hookSet)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetTraversalHooks installs h. A nil h is ignored.
func SetTraversalHooks(h TraversalHooks) {
	if h == nil {
		return
	}
	update(func(s *hookSet) { s.traversal = h })
}

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		return
	}
	update(func(s *hookSet) { s.http = h })
}

// Traversal returns the installed traversal hooks.
func Traversal() TraversalHooks {
	return current.Load().traversal
}

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks {
	return current.Load().http
}

// Reset restores the no-op hooks.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(&hookSet{traversal: NoopTraversalHooks{}, http: NoopHTTPHooks{}})
}
