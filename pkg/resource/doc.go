// Package resource defines the data model shared by the traversal engine.
//
// A [Resource] is the normalized form of one fetched document. Media it points
// at are grouped into [Target] values keyed by the reference URI with its
// fragment removed; the removed fragments accumulate in a [FragmentSet]:
//
//	score.mei#m1, score.mei#m2, score.mei#m1
//	  → Target{URI: "score.mei", Kind: music-notation, Fragments: {m1, m2}}
//
// Fragment sets only grow. Two references that differ only in their fragment
// always land in the same target.
package resource
