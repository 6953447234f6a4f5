// Package ld is the JSON-LD layer of annograph: a typed [Node] view over
// expanded documents and the [Expander] collaborator that produces them.
//
// Expansion rewrites every term of a document into a full IRI, so after
// [FromExpanded] predicates are looked up by IRI rather than by whatever
// prefix the author chose:
//
//	nodes, _ := ld.FromExpanded(expanded)
//	node, _ := ld.Select(nodes, "https://example.org/anno.json")
//	for _, t := range node.Objects(vocab.HasTarget) {
//	    fmt.Println(t.ID)
//	}
//
// The default [Expander] is [GoldExpander], backed by
// github.com/piprate/json-gold. Tests substitute their own implementation.
package ld
