package ld

import (
	"context"
	"net/http"
	"sync"

	jsonld "github.com/piprate/json-gold/ld"
)

// Expander is the JSON-LD processor used by the normalizer. Expand turns a
// decoded document into its expanded node list; Compact renders one expanded
// node against a context for display.
type Expander interface {
	Expand(ctx context.Context, doc any, base string) ([]any, error)
	Compact(ctx context.Context, node map[string]any, jsonCtx any, base string) (map[string]any, error)
}

// GoldExpander implements [Expander] with json-gold. Remote contexts are
// loaded through the given HTTP client and cached for the lifetime of the
// expander, so one traversal fetches each context once.
type GoldExpander struct {
	proc   *jsonld.JsonLdProcessor
	loader jsonld.DocumentLoader
}

var _ Expander = (*GoldExpander)(nil)

// NewGoldExpander creates an expander whose document loader uses client.
// A nil client uses [http.DefaultClient].
func NewGoldExpander(client *http.Client) *GoldExpander {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoldExpander{
		proc:   jsonld.NewJsonLdProcessor(),
		loader: &lockedLoader{next: jsonld.NewCachingDocumentLoader(jsonld.NewDefaultDocumentLoader(client))},
	}
}

// Expand runs JSON-LD expansion with base as the document base IRI.
// json-gold has no context support; ctx is checked before starting.
func (e *GoldExpander) Expand(ctx context.Context, doc any, base string) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.proc.Expand(doc, e.options(base))
}

// Compact runs JSON-LD compaction of node against context.
func (e *GoldExpander) Compact(ctx context.Context, node map[string]any, jsonCtx any, base string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.proc.Compact(node, map[string]any{"@context": jsonCtx}, e.options(base))
}

func (e *GoldExpander) options(base string) *jsonld.JsonLdOptions {
	opts := jsonld.NewJsonLdOptions(base)
	opts.DocumentLoader = e.loader
	return opts
}

// lockedLoader serializes access to json-gold's caching loader, whose cache
// is a plain map.
type lockedLoader struct {
	mu   sync.Mutex
	next jsonld.DocumentLoader
}

func (l *lockedLoader) LoadDocument(u string) (*jsonld.RemoteDocument, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.LoadDocument(u)
}

// MergeContext combines the namespace context with the @context a document
// declared. Object contexts are merged key by key with the document winning;
// remote or list contexts are appended after the defaults.
func MergeContext(defaults map[string]any, declared any) any {
	switch d := declared.(type) {
	case nil:
		return defaults
	case map[string]any:
		merged := make(map[string]any, len(defaults)+len(d))
		for k, v := range defaults {
			merged[k] = v
		}
		for k, v := range d {
			merged[k] = v
		}
		return merged
	case []any:
		return append([]any{defaults}, d...)
	default:
		return []any{defaults, d}
	}
}

// DeclaredContext returns the @context of a decoded document, if any.
func DeclaredContext(doc any) any {
	if m, ok := doc.(map[string]any); ok {
		return m["@context"]
	}
	return nil
}
