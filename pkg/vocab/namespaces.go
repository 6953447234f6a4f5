package vocab

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Namespaces maps short prefixes to namespace IRIs.
// A Namespaces value is read-only after construction and safe for concurrent use.
type Namespaces struct {
	iris     map[string]string
	prefixes []string // sorted by IRI length, longest first
}

// DefaultNamespaces returns the prefix table used when no configuration
// overrides it.
func DefaultNamespaces() map[string]string {
	return map[string]string{
		"oa":   OA,
		"mao":  MAO,
		"frbr": FRBR,
		"dc":   DC,
		"rdfs": RDFS,
		"rdf":  RDF,
		"mo":   MO,
		"tl":   TL,
		"ssv":  SSV,
	}
}

// NewNamespaces builds a Namespaces from a prefix → IRI table.
// Empty prefixes or IRIs are rejected.
func NewNamespaces(table map[string]string) (*Namespaces, error) {
	ns := &Namespaces{iris: make(map[string]string, len(table))}
	for prefix, iri := range table {
		if prefix == "" || iri == "" {
			return nil, fmt.Errorf("namespace %q: prefix and IRI must be non-empty", prefix)
		}
		ns.iris[prefix] = iri
	}
	ns.prefixes = slices.Collect(maps.Keys(ns.iris))
	slices.SortFunc(ns.prefixes, func(a, b string) int {
		if d := len(ns.iris[b]) - len(ns.iris[a]); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return ns, nil
}

// MustNamespaces is like [NewNamespaces] but panics on error.
func MustNamespaces(table map[string]string) *Namespaces {
	ns, err := NewNamespaces(table)
	if err != nil {
		panic(err)
	}
	return ns
}

// IRI returns the namespace IRI bound to prefix.
func (n *Namespaces) IRI(prefix string) (string, bool) {
	iri, ok := n.iris[prefix]
	return iri, ok
}

// Term joins prefix and local name into a full IRI.
// Unknown prefixes are returned as "prefix:local".
func (n *Namespaces) Term(prefix, local string) string {
	if iri, ok := n.iris[prefix]; ok {
		return iri + local
	}
	return prefix + ":" + local
}

// Label renders uri for display. If a namespace prefixes it, the result is
// "prefix:localName" (longest namespace wins); otherwise it is the substring
// after the last "/".
func (n *Namespaces) Label(uri string) string {
	for _, prefix := range n.prefixes {
		if local, ok := strings.CutPrefix(uri, n.iris[prefix]); ok {
			return prefix + ":" + local
		}
	}
	return uri[strings.LastIndex(uri, "/")+1:]
}

// Context returns a JSON-LD context object binding every prefix, with oa as
// the default vocabulary.
func (n *Namespaces) Context() map[string]any {
	ctx := make(map[string]any, len(n.iris)+1)
	for prefix, iri := range n.iris {
		ctx[prefix] = iri
	}
	if oa, ok := n.iris["oa"]; ok {
		ctx["@vocab"] = oa
	}
	return ctx
}

// Table returns a copy of the prefix → IRI table.
func (n *Namespaces) Table() map[string]string {
	return maps.Clone(n.iris)
}
