package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/vocab"
)

func testSnapshot() *registry.Snapshot {
	a := ld.NewNode(map[string]any{
		"@id":   "https://x/a",
		"@type": []any{vocab.Annotation},
		vocab.HasTarget: []any{
			map[string]any{"@id": "https://x/doc.mei#n1"},
			map[string]any{"@id": "https://x/doc.mei#n2"},
			map[string]any{"@id": "https://x/b"},
			map[string]any{"@id": "https://x/page"},
		},
		vocab.HasBody: []any{
			map[string]any{"@type": []any{vocab.TextualBody}},
		},
		vocab.Label: []any{map[string]any{"@value": "first"}},
	})
	resA := &resource.Resource{URI: "https://x/a", Node: a, Expanded: a.Map()}
	resA.Target("https://x/doc.mei", resource.KindMusicNotation).Fragments.Add("n1")
	resA.Target("https://x/doc.mei", resource.KindMusicNotation).Fragments.Add("n2")

	b := ld.NewNode(map[string]any{"@id": "https://x/b", "@type": []any{vocab.Extract}})
	resB := &resource.Resource{URI: "https://x/b", Node: b, Expanded: b.Map()}

	return &registry.Snapshot{
		Root:      "https://x/a",
		Resources: map[string]*resource.Resource{"https://x/a": resA, "https://x/b": resB},
		Blanks:    map[string][]string{"https://x/a": {"_:b0"}},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testSnapshot(), Options{Detailed: true})

	for _, want := range []string{
		"digraph G {",
		`"https://x/a" [label="a\noa:Annotation\nfirst", fillcolor="#d6f0ee", penwidth=2];`,
		`"https://x/b" [label="b\nmao:Extract"];`,
		`"https://x/a" -> "https://x/doc.mei" [label="oa:hasTarget (2)"];`,
		`"https://x/a" -> "https://x/b" [label="oa:hasTarget"];`,
		`"https://x/a" -> "https://x/page" [label="oa:hasTarget", style=dashed];`,
		`_:b0\noa:TextualBody`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if n := strings.Count(dot, `-> "https://x/doc.mei"`); n != 1 {
		t.Errorf("target edges = %d, want 1 collapsed edge", n)
	}
}

func TestToDOTPlainLabels(t *testing.T) {
	dot := ToDOT(testSnapshot(), Options{})
	if !strings.Contains(dot, `"https://x/b" [label="b"];`) {
		t.Errorf("plain label missing:\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(&registry.Snapshot{}, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}
