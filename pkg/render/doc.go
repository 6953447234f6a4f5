// Package render groups the visualizations of a traversal snapshot.
//
// The [nodelink] subpackage renders the discovered graph as a directed
// node-link diagram using Graphviz:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// [nodelink]: github.com/matzehuels/annograph/pkg/render/nodelink
package render
