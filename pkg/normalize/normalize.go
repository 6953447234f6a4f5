package normalize

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/observability"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/vocab"
)

// DefaultProbeConcurrency bounds the HEAD requests one resource issues at once.
const DefaultProbeConcurrency = 8

// Classification outcomes reported to the observability hooks besides the
// media kinds themselves.
const (
	OutcomeTraverse = "traverse"
	OutcomeOpaque   = "opaque"
	OutcomeBlank    = "blank"
	OutcomeIgnored  = "ignored"
)

// Prober learns the content type behind a URI.
type Prober interface {
	Probe(ctx context.Context, uri string) (string, error)
}

// Options configures a Normalizer.
type Options struct {
	Namespaces       *vocab.Namespaces // nil uses vocab.DefaultNamespaces
	Rules            *Rules            // nil uses DefaultRules
	ProbeConcurrency int               // <= 0 uses DefaultProbeConcurrency
	Logger           *log.Logger       // nil uses log.Default()
}

// Normalizer turns fetched documents into resources and sorts their
// outbound references. It holds no per-run state and is safe for concurrent
// use by many cycles.
type Normalizer struct {
	exp    ld.Expander
	prober Prober
	ns     *vocab.Namespaces
	rules  Rules
	limit  int
	logger *log.Logger
}

// New creates a Normalizer that expands with exp and probes candidates with
// prober.
func New(exp ld.Expander, prober Prober, opts Options) *Normalizer {
	n := &Normalizer{
		exp:    exp,
		prober: prober,
		ns:     opts.Namespaces,
		limit:  opts.ProbeConcurrency,
		logger: opts.Logger,
	}
	if n.ns == nil {
		n.ns = vocab.MustNamespaces(vocab.DefaultNamespaces())
	}
	if opts.Rules != nil {
		n.rules = *opts.Rules
	} else {
		n.rules = DefaultRules()
	}
	if n.limit <= 0 {
		n.limit = DefaultProbeConcurrency
	}
	if n.logger == nil {
		n.logger = log.Default()
	}
	return n
}

// Namespaces returns the prefix table used for compaction and labels.
func (n *Normalizer) Namespaces() *vocab.Namespaces { return n.ns }

// Normalize expands raw, selects the node describing raw.URI, validates it
// and compacts it for display.
//
// An expansion or compaction failure yields ErrCodeExpansion; a node that
// is neither an annotation with a target nor one of the musical material
// kinds yields ErrCodeValidation. No partial resource is returned.
func (n *Normalizer) Normalize(ctx context.Context, raw *resource.RawDocument) (*resource.Resource, error) {
	expanded, err := n.exp.Expand(ctx, raw.Body, raw.URI)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExpansion, err, "expand %s", raw.URI)
	}
	nodes, err := ld.FromExpanded(expanded)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExpansion, err, "expand %s", raw.URI)
	}
	node, ok := ld.Select(nodes, raw.URI)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, "%s: document describes no node", raw.URI)
	}

	types := declaredTypes(node)
	if err := validate(raw.URI, node, types); err != nil {
		return nil, err
	}

	ctxDoc := ld.MergeContext(n.ns.Context(), ld.DeclaredContext(raw.Body))
	compacted, err := n.exp.Compact(ctx, node.Map(), ctxDoc, raw.URI)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExpansion, err, "compact %s", raw.URI)
	}

	return &resource.Resource{
		URI:       raw.URI,
		Raw:       raw.Body,
		Expanded:  node.Map(),
		Node:      node,
		Compacted: compacted,
		Types:     types,
	}, nil
}

func declaredTypes(node ld.Node) []vocab.Type {
	var types []vocab.Type
	for _, iri := range node.Types {
		if t := vocab.ParseType(iri); t != vocab.TypeUnknown && !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	return types
}

func validate(uri string, node ld.Node, types []vocab.Type) error {
	for _, t := range types {
		switch t {
		case vocab.TypeMusicalMaterial, vocab.TypeExtract, vocab.TypeSelection:
			return nil
		}
	}
	if slices.Contains(types, vocab.TypeAnnotation) {
		if len(node.Objects(vocab.HasTarget)) == 0 {
			return errors.New(errors.ErrCodeValidation, "%s: annotation has no target", uri)
		}
		return nil
	}
	return errors.New(errors.ErrCodeValidation, "%s: unsupported types %v", uri, node.Types)
}

// Predicates returns the union of traversal predicates over every type the
// resource declares, in a stable order. Declared types without an entry in
// [vocab.TraversalPredicates] are logged and contribute nothing.
func (n *Normalizer) Predicates(res *resource.Resource) []string {
	var preds []string
	for _, iri := range res.Node.Types {
		p, ok := vocab.PredicatesFor(vocab.ParseType(iri))
		if !ok {
			n.logger.Warn("no traversal predicates for type", "uri", res.URI, "type", n.ns.Label(iri))
			continue
		}
		for _, pred := range p {
			if !slices.Contains(preds, pred) {
				preds = append(preds, pred)
			}
		}
	}
	slices.Sort(preds)
	return preds
}

// Candidate is a reference whose content type decides whether it is
// traversed. URI has its fragment removed; Fragments collects the removed
// fragments of every reference to it.
type Candidate struct {
	URI       string
	Fragments resource.FragmentSet
}

// Classification is what [Normalizer.Classify] found besides media targets.
type Classification struct {
	Candidates []Candidate
	Blanks     []string // synthetic identifiers of unnamed objects
}

// Classify sorts the objects of every eligible predicate of res. References
// whose path ends in a media suffix are recorded as targets on res, with
// their fragments merged into the target's fragment set. Other absolute
// http(s) references become candidates, one per stripped URI. Objects
// without an identifier are returned as blank nodes. Classify does no I/O.
//
// res must not have been registered yet.
func (n *Normalizer) Classify(ctx context.Context, res *resource.Resource) Classification {
	hooks := observability.Traversal()

	var out Classification
	candidates := make(map[string]int)
	preds := n.Predicates(res)
	blanks := newBlankNamer(res.Node, preds)
	for _, pred := range preds {
		for _, obj := range res.Node.Objects(pred) {
			if obj.IsValue() {
				hooks.OnClassified(ctx, OutcomeIgnored)
				continue
			}
			if !obj.HasID() {
				id := obj.ID
				if id == "" {
					id = blanks.next()
				}
				out.Blanks = append(out.Blanks, id)
				hooks.OnClassified(ctx, OutcomeBlank)
				continue
			}

			u, err := errors.ParseHTTPURI(obj.ID)
			if err != nil {
				n.logger.Debug("ignoring reference", "uri", res.URI, "ref", obj.ID, "code", errors.GetCode(err))
				hooks.OnClassified(ctx, OutcomeIgnored)
				continue
			}
			stripped, frag := resource.Strip(u)

			if kind, ok := n.rules.KindBySuffix(u.Path); ok {
				res.Target(stripped, kind).Fragments.Add(frag)
				hooks.OnClassified(ctx, string(kind))
				continue
			}

			i, ok := candidates[stripped]
			if !ok {
				i = len(out.Candidates)
				candidates[stripped] = i
				out.Candidates = append(out.Candidates, Candidate{URI: stripped, Fragments: resource.NewFragmentSet()})
			}
			out.Candidates[i].Fragments.Add(frag)
		}
	}
	return out
}

// Triage probes every candidate and returns the URIs to traverse, in
// candidate order. Candidates whose content type names a media kind become
// targets on res. Everything else is opaque and dropped. A failed probe
// drops only its own candidate.
//
// res must not have been registered yet.
func (n *Normalizer) Triage(ctx context.Context, res *resource.Resource, candidates []Candidate) []string {
	types := make([]string, len(candidates))
	errs := make([]error, len(candidates))

	var g errgroup.Group
	g.SetLimit(n.limit)
	for i, c := range candidates {
		g.Go(func() error {
			types[i], errs[i] = n.prober.Probe(ctx, c.URI)
			return nil
		})
	}
	_ = g.Wait()

	hooks := observability.Traversal()
	var queue []string
	for i, c := range candidates {
		ct := types[i]
		switch {
		case errs[i] != nil:
			n.logger.Warn("probe failed", "uri", res.URI, "ref", c.URI, "code", errors.GetCode(errs[i]), "err", errors.UserMessage(errs[i]))
			continue
		case n.rules.Traversable(ct):
			queue = append(queue, c.URI)
			hooks.OnClassified(ctx, OutcomeTraverse)
		default:
			if kind, ok := n.rules.KindByContentType(ct); ok {
				res.Target(c.URI, kind).Fragments.Merge(c.Fragments)
				hooks.OnClassified(ctx, string(kind))
				continue
			}
			n.logger.Debug("opaque reference", "uri", res.URI, "ref", c.URI, "content_type", ct)
			hooks.OnClassified(ctx, OutcomeOpaque)
		}
	}
	return queue
}

// blankNamer hands out synthetic blank node ids that do not collide with
// the blank ids a document names itself.
type blankNamer struct {
	taken map[string]struct{}
	n     int
}

func newBlankNamer(node ld.Node, preds []string) *blankNamer {
	b := &blankNamer{taken: make(map[string]struct{})}
	for _, pred := range preds {
		for _, obj := range node.Objects(pred) {
			if !obj.IsValue() && obj.ID != "" && !obj.HasID() {
				b.taken[obj.ID] = struct{}{}
			}
		}
	}
	return b
}

func (b *blankNamer) next() string {
	for {
		id := fmt.Sprintf("%sb%d", ld.BlankPrefix, b.n)
		b.n++
		if _, ok := b.taken[id]; !ok {
			b.taken[id] = struct{}{}
			return id
		}
	}
}
