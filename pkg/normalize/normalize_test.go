package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/vocab"
)

const testContext = `{
	"oa": "http://www.w3.org/ns/oa#",
	"mao": "https://domestic-beethoven.eu/ontology/1.0/music-annotation-ontology.ttl#",
	"frbr": "http://purl.org/vocab/frbr/core#",
	"rdf": "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
}`

type mockProber map[string]string

func (m mockProber) Probe(_ context.Context, uri string) (string, error) {
	ct, ok := m[uri]
	if !ok {
		return "", errors.HTTPStatus(404, "HEAD %s", uri)
	}
	return ct, nil
}

type failingExpander struct{}

func (failingExpander) Expand(context.Context, any, string) ([]any, error) {
	return nil, fmt.Errorf("invalid @context")
}

func (failingExpander) Compact(context.Context, map[string]any, any, string) (map[string]any, error) {
	return nil, fmt.Errorf("unreachable")
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestNormalizer(p Prober) *Normalizer {
	return New(ld.NewGoldExpander(nil), p, Options{Logger: quietLogger()})
}

func rawDoc(t *testing.T, uri, body string) *resource.RawDocument {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	if m, ok := v.(map[string]any); ok {
		var ctx any
		json.Unmarshal([]byte(testContext), &ctx)
		m["@context"] = ctx
	}
	return &resource.RawDocument{URI: uri, ContentType: "application/ld+json", Body: v}
}

func TestNormalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr errors.Code
		types   []vocab.Type
	}{
		{
			name:  "annotation with target",
			body:  `{"@id": "https://x/r", "@type": "oa:Annotation", "oa:hasTarget": {"@id": "https://x/doc.mei"}}`,
			types: []vocab.Type{vocab.TypeAnnotation},
		},
		{
			name:    "annotation without target",
			body:    `{"@id": "https://x/r", "@type": "oa:Annotation"}`,
			wantErr: errors.ErrCodeValidation,
		},
		{
			name:  "musical material without target",
			body:  `{"@id": "https://x/r", "@type": "mao:MusicalMaterial"}`,
			types: []vocab.Type{vocab.TypeMusicalMaterial},
		},
		{
			name:  "extract",
			body:  `{"@id": "https://x/r", "@type": "mao:Extract"}`,
			types: []vocab.Type{vocab.TypeExtract},
		},
		{
			name:  "selection and annotation",
			body:  `{"@id": "https://x/r", "@type": ["mao:Selection", "oa:Annotation"]}`,
			types: []vocab.Type{vocab.TypeSelection, vocab.TypeAnnotation},
		},
		{
			name:    "unknown type",
			body:    `{"@id": "https://x/r", "@type": "oa:TextualBody"}`,
			wantErr: errors.ErrCodeValidation,
		},
		{
			name:    "untyped",
			body:    `{"@id": "https://x/r"}`,
			wantErr: errors.ErrCodeValidation,
		},
		{
			name:    "empty document",
			body:    `{}`,
			wantErr: errors.ErrCodeValidation,
		},
	}

	n := newTestNormalizer(mockProber{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := n.Normalize(context.Background(), rawDoc(t, "https://x/r", tt.body))
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %s", err, tt.wantErr)
				}
				if res != nil {
					t.Error("got a resource alongside the error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if !slices.Equal(res.Types, tt.types) {
				t.Errorf("Types = %v, want %v", res.Types, tt.types)
			}
			if res.Expanded["@id"] != "https://x/r" {
				t.Errorf("Expanded @id = %v", res.Expanded["@id"])
			}
			if res.Compacted == nil {
				t.Error("Compacted is nil")
			}
		})
	}
}

func TestNormalizeExpansionError(t *testing.T) {
	n := New(failingExpander{}, mockProber{}, Options{Logger: quietLogger()})
	_, err := n.Normalize(context.Background(), &resource.RawDocument{URI: "https://x/r", Body: map[string]any{}})
	if !errors.Is(err, errors.ErrCodeExpansion) {
		t.Errorf("error = %v, want EXPANSION_ERROR", err)
	}
}

func TestPredicates(t *testing.T) {
	n := newTestNormalizer(mockProber{})
	res, err := n.Normalize(context.Background(), rawDoc(t, "https://x/r",
		`{"@id": "https://x/r", "@type": ["mao:Extract", "mao:Selection", "oa:TextualBody"]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{vocab.Embodiment, vocab.Part}
	slices.Sort(want)
	if got := n.Predicates(res); !slices.Equal(got, want) {
		t.Errorf("Predicates() = %v, want %v", got, want)
	}
}

func TestClassifyMusicNotation(t *testing.T) {
	n := newTestNormalizer(mockProber{})
	res, err := n.Normalize(context.Background(), rawDoc(t, "https://x/r", `{
		"@id": "https://x/r",
		"@type": "oa:Annotation",
		"oa:hasTarget": [
			{"@id": "https://x/doc.mei#n1"},
			{"@id": "https://x/doc.mei#n2"},
			{"@id": "https://x/doc.mei#n1"},
			{"@id": "https://x/DOC.MEI#n3"}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	c := n.Classify(context.Background(), res)
	targets := res.TargetsOf(resource.KindMusicNotation)
	if len(targets) != 1 {
		t.Fatalf("got %d music targets, want 1: %+v", len(targets), res.Targets)
	}
	if targets[0].URI != "https://x/doc.mei" {
		t.Errorf("target URI = %q", targets[0].URI)
	}
	if got := targets[0].Fragments.Sorted(); !slices.Equal(got, []string{"n1", "n2"}) {
		t.Errorf("fragments = %v, want [n1 n2]", got)
	}
	// suffix matching is case-sensitive, so the upper-case file is a candidate
	if len(c.Candidates) != 1 || c.Candidates[0].URI != "https://x/DOC.MEI" {
		t.Errorf("candidates = %+v", c.Candidates)
	}
}

func TestClassifyIgnoresAndBlanks(t *testing.T) {
	n := newTestNormalizer(mockProber{})
	res, err := n.Normalize(context.Background(), rawDoc(t, "https://x/r", `{
		"@id": "https://x/r",
		"@type": "oa:Annotation",
		"oa:hasTarget": [
			{"@id": "urn:isbn:123"},
			{"@id": "ftp://x/file.mei"},
			{"@value": "a literal"},
			{"rdf:value": "unnamed"},
			{"rdf:value": "unnamed too"},
			{"@id": "https://x/other#a"},
			{"@id": "https://x/other#b"}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	c := n.Classify(context.Background(), res)
	if len(res.Targets) != 0 {
		t.Errorf("Targets = %+v, want none", res.Targets)
	}
	if !slices.Equal(c.Blanks, []string{"_:b0", "_:b1"}) {
		t.Errorf("Blanks = %v", c.Blanks)
	}
	if len(c.Candidates) != 1 {
		t.Fatalf("Candidates = %+v, want one", c.Candidates)
	}
	if got := c.Candidates[0].Fragments.Sorted(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("candidate fragments = %v", got)
	}
}

func TestClassifyBlankIDsDoNotCollide(t *testing.T) {
	n := newTestNormalizer(mockProber{})
	res, err := n.Normalize(context.Background(), rawDoc(t, "https://x/r", `{
		"@id": "https://x/r",
		"@type": "oa:Annotation",
		"oa:hasTarget": [
			{"@id": "_:b1", "rdf:value": "named by the document"},
			{"rdf:value": "unnamed"},
			{"rdf:value": "unnamed too"},
			{"@id": "_:b0", "rdf:value": "named after the unnamed ones"}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	c := n.Classify(context.Background(), res)
	if len(c.Blanks) != 4 {
		t.Fatalf("Blanks = %v, want four", c.Blanks)
	}
	seen := make(map[string]bool)
	for _, id := range c.Blanks {
		if seen[id] {
			t.Errorf("blank id %s recorded twice in %v", id, c.Blanks)
		}
		seen[id] = true
	}
	for _, id := range []string{"_:b0", "_:b1"} {
		if !seen[id] {
			t.Errorf("document blank id %s missing from %v", id, c.Blanks)
		}
	}
}

func TestClassifyAudioSuffix(t *testing.T) {
	n := newTestNormalizer(mockProber{})
	res, err := n.Normalize(context.Background(), rawDoc(t, "https://x/r", `{
		"@id": "https://x/r",
		"@type": "oa:Annotation",
		"oa:hasTarget": {"@id": "https://x/take.mp3#t=1.5,3"}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	c := n.Classify(context.Background(), res)
	if len(c.Candidates) != 0 {
		t.Errorf("Candidates = %+v, want none", c.Candidates)
	}
	audio := res.TargetsOf(resource.KindAudio)
	if len(audio) != 1 || !audio[0].Fragments.Has("t=1.5,3") {
		t.Errorf("audio targets = %+v", audio)
	}
}

func TestTriage(t *testing.T) {
	p := mockProber{
		"https://x/doc.jsonld": "application/ld+json",
		"https://x/page":       "text/html",
		"https://x/stream":     "audio/mpeg",
		"https://x/Upper":      "Application/LD+JSON",
	}
	n := newTestNormalizer(p)
	res := &resource.Resource{URI: "https://x/r"}
	cands := []Candidate{
		{URI: "https://x/doc.jsonld", Fragments: resource.NewFragmentSet("x")},
		{URI: "https://x/page", Fragments: resource.NewFragmentSet()},
		{URI: "https://x/stream", Fragments: resource.NewFragmentSet("t=0,10")},
		{URI: "https://x/missing", Fragments: resource.NewFragmentSet()},
		{URI: "https://x/Upper", Fragments: resource.NewFragmentSet()},
	}

	queue := n.Triage(context.Background(), res, cands)
	if !slices.Equal(queue, []string{"https://x/doc.jsonld"}) {
		t.Errorf("queue = %v", queue)
	}
	audio := res.TargetsOf(resource.KindAudio)
	if len(audio) != 1 || audio[0].URI != "https://x/stream" || !audio[0].Fragments.Has("t=0,10") {
		t.Errorf("audio = %+v", audio)
	}
	if len(res.Targets) != 1 {
		t.Errorf("Targets = %+v, want only the audio stream", res.Targets)
	}
}

func TestTriageNoCandidates(t *testing.T) {
	n := newTestNormalizer(mockProber{})
	if q := n.Triage(context.Background(), &resource.Resource{URI: "https://x/r"}, nil); len(q) != 0 {
		t.Errorf("queue = %v, want empty", q)
	}
}

func TestRules(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		path string
		kind resource.MediaKind
		ok   bool
	}{
		{"/scores/op1.mei", resource.KindMusicNotation, true},
		{"/scores/op1.MEI", resource.KindUnknown, false},
		{"/a.wav", resource.KindAudio, true},
		{"/a.json", resource.KindUnknown, false},
	}
	for _, tt := range tests {
		kind, ok := r.KindBySuffix(tt.path)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("KindBySuffix(%q) = %v, %v; want %v, %v", tt.path, kind, ok, tt.kind, tt.ok)
		}
	}
	if !r.Traversable("text/turtle") || r.Traversable("text/html") {
		t.Error("Traversable() mismatch")
	}
	if k, ok := r.KindByContentType("audio/ogg"); !ok || k != resource.KindAudio {
		t.Errorf("KindByContentType(audio/ogg) = %v, %v", k, ok)
	}
}
