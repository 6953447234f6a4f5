package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/vocab"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Namespaces shortens IRIs in labels. Nil uses the default prefixes.
	Namespaces *vocab.Namespaces
	// Detailed adds declared types and rdfs:label values to node labels.
	// When false, only the shortened URI is shown.
	Detailed bool
}

// ToDOT converts a registry snapshot to Graphviz DOT.
//
// Every registered resource is a node. Edges follow [vocab.DisplayPredicates]:
// references to other registered resources link to them, references to
// media targets collapse into one edge per target labelled with the number
// of fragments, and anything else becomes a dashed leaf. Unnamed objects are
// drawn with the blank identifiers recorded for their owner. The snapshot
// root is highlighted.
func ToDOT(s *registry.Snapshot, opts Options) string {
	ns := opts.Namespaces
	if ns == nil {
		ns = vocab.MustNamespaces(vocab.DefaultNamespaces())
	}
	d := &dotWriter{ns: ns, seen: make(map[string]bool)}

	d.buf.WriteString("digraph G {\n")
	d.buf.WriteString("  rankdir=LR;\n")
	d.buf.WriteString("  bgcolor=\"transparent\";\n")
	d.buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	d.buf.WriteString("  edge [fontsize=11];\n")
	d.buf.WriteString("\n")

	uris := s.URIs()
	for _, uri := range uris {
		res := s.Resources[uri]
		attrs := []string{fmt.Sprintf("label=%q", d.resourceLabel(res, opts.Detailed))}
		if uri == s.Root {
			attrs = append(attrs, "fillcolor=\"#d6f0ee\"", "penwidth=2")
		}
		d.node(uri, attrs)
	}

	d.buf.WriteString("\n")
	for _, uri := range uris {
		d.edges(s, s.Resources[uri])
	}

	d.buf.WriteString("}\n")
	return d.buf.String()
}

type dotWriter struct {
	buf  bytes.Buffer
	ns   *vocab.Namespaces
	seen map[string]bool
}

func (d *dotWriter) node(id string, attrs []string) {
	if d.seen[id] {
		return
	}
	d.seen[id] = true
	fmt.Fprintf(&d.buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
}

func (d *dotWriter) edge(from, to, label string, extra ...string) {
	attrs := append([]string{fmt.Sprintf("label=%q", label)}, extra...)
	fmt.Fprintf(&d.buf, "  %q -> %q [%s];\n", from, to, strings.Join(attrs, ", "))
}

func (d *dotWriter) resourceLabel(res *resource.Resource, detailed bool) string {
	label := d.ns.Label(res.URI)
	if !detailed {
		return label
	}
	var parts []string
	for _, t := range res.Node.Types {
		parts = append(parts, d.ns.Label(t))
	}
	for _, l := range res.Node.Objects(vocab.Label) {
		parts = append(parts, l.String())
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func (d *dotWriter) edges(s *registry.Snapshot, res *resource.Resource) {
	blanks := s.Blanks[res.URI]
	nblank := 0
	collapsed := make(map[string]bool)

	for _, pred := range vocab.DisplayPredicates {
		label := d.ns.Label(pred)
		for _, obj := range res.Node.Objects(pred) {
			switch {
			case obj.IsValue():
				continue
			case !obj.HasID():
				id := fmt.Sprintf("%s%sb%d", res.URI, ld.BlankPrefix, nblank)
				name := obj.ID
				if nblank < len(blanks) {
					name = blanks[nblank]
				}
				nblank++
				d.node(id, []string{fmt.Sprintf("label=%q", d.blankLabel(name, obj)), "shape=ellipse", "fillcolor=\"#f4f4f4\""})
				d.edge(res.URI, id, label)
				continue
			}

			ref := obj.ID
			stripped, _, _ := strings.Cut(ref, "#")
			if t, ok := res.Targets[stripped]; ok {
				key := pred + " " + stripped
				if collapsed[key] {
					continue
				}
				collapsed[key] = true
				d.node(stripped, []string{fmt.Sprintf("label=%q", d.ns.Label(stripped)), "shape=note", kindColor(t.Kind)})
				d.edge(res.URI, stripped, fmt.Sprintf("%s (%d)", label, t.Fragments.Len()))
				continue
			}
			if _, ok := s.Resources[stripped]; ok {
				d.edge(res.URI, stripped, label)
				continue
			}
			d.node(ref, []string{fmt.Sprintf("label=%q", d.ns.Label(ref)), "style=\"rounded,dashed\""})
			d.edge(res.URI, ref, label, "style=dashed")
		}
	}
}

func (d *dotWriter) blankLabel(name string, obj ld.Node) string {
	if name == "" {
		name = "[ ]"
	}
	if len(obj.Types) > 0 {
		return name + "\n" + d.ns.Label(obj.Types[0])
	}
	return name
}

func kindColor(kind resource.MediaKind) string {
	switch kind {
	case resource.KindMusicNotation:
		return "fillcolor=\"#fdf1d6\""
	case resource.KindAudio:
		return "fillcolor=\"#e3ecfb\""
	default:
		return "fillcolor=white"
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
