// Package vocab holds the vocabulary tables of the annotation web: namespace
// IRIs for Web Annotation (oa), the Music Annotation Ontology (mao), FRBR and
// friends, the closed [Type] enumeration of document kinds, and the
// [TraversalPredicates] table deciding which outbound references are followed
// from each kind.
//
// # Labels
//
// [Namespaces.Label] shortens IRIs for display:
//
//	ns := vocab.MustNamespaces(vocab.DefaultNamespaces())
//	ns.Label(vocab.HasTarget)                 // "oa:hasTarget"
//	ns.Label("https://example.org/a/b.json")  // "b.json"
//
// Labels are purely presentational and never used for matching.
package vocab
