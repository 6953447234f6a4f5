// Package nodelink draws a traversal's discovered graph as a node-link
// diagram.
//
// # Usage
//
// Convert a registry snapshot to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(reg.Snapshot(runID, root), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Layout
//
// Resources are rounded boxes, the root filled in teal. Music-notation and
// audio targets are note-shaped leaves; the edge to a target carries the
// predicate and the number of distinct fragments referenced. References that
// were never registered (opaque links, failed documents) are dashed.
//
// The DOT source can also be written out and processed with external
// Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
