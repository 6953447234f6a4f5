package sink

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
	"github.com/matzehuels/annograph/pkg/vocab"
)

func testSnapshot() *registry.Snapshot {
	node := ld.NewNode(map[string]any{"@id": "https://x/a", "@type": []any{vocab.Annotation}})
	res := &resource.Resource{URI: "https://x/a", Node: node, Expanded: node.Map()}
	res.Target("https://x/doc.mei", resource.KindMusicNotation).Fragments.Add("n1")

	return &registry.Snapshot{
		RunID:        "run-1",
		Root:         "https://x/a",
		Generated:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Resources:    map[string]*resource.Resource{"https://x/a": res},
		MusicTargets: map[string]resource.FragmentSet{"https://x/doc.mei": resource.NewFragmentSet("n1")},
		AudioTargets: map[string]resource.FragmentSet{},
	}
}

func TestNullSink(t *testing.T) {
	s := NewNullSink()
	defer s.Close()
	if err := s.Write(context.Background(), testSnapshot()); err != nil {
		t.Errorf("Write() error: %v", err)
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "snapshot.json")
	s := NewFileSink(path)
	if err := s.Write(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		RunID        string              `json:"run_id"`
		Resources    map[string]any      `json:"resources"`
		MusicTargets map[string][]string `json:"music_targets"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.RunID != "run-1" {
		t.Errorf("run_id = %q", got.RunID)
	}
	if _, ok := got.Resources["https://x/a"]; !ok {
		t.Errorf("resources = %v", got.Resources)
	}
	if f := got.MusicTargets["https://x/doc.mei"]; len(f) != 1 || f[0] != "n1" {
		t.Errorf("music_targets = %v", got.MusicTargets)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

type recordingSink struct {
	err    error
	writes int
	closed bool
}

func (r *recordingSink) Write(context.Context, *registry.Snapshot) error {
	r.writes++
	return r.err
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestMulti(t *testing.T) {
	errB, errC := fmt.Errorf("boom"), fmt.Errorf("bang")
	a, b, c := &recordingSink{}, &recordingSink{err: errB}, &recordingSink{err: errC}
	m := Multi{a, b, c}

	err := m.Write(context.Background(), testSnapshot())
	if !stderrors.Is(err, errB) || !stderrors.Is(err, errC) {
		t.Errorf("Write() error = %v, want both failing sinks' errors", err)
	}
	if a.writes != 1 || b.writes != 1 || c.writes != 1 {
		t.Errorf("writes = %d, %d, %d; want 1 each", a.writes, b.writes, c.writes)
	}
	if err := (Multi{a, &recordingSink{}}).Write(context.Background(), testSnapshot()); err != nil {
		t.Errorf("Write() with healthy sinks error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("not every sink was closed")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		url  string
		want string
	}{
		{"", "*sink.NullSink"},
		{"out.json", "*sink.FileSink"},
		{"file:///tmp/out.json", "*sink.FileSink"},
		{"redis://localhost:6379/0", "*sink.RedisSink"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			s, err := Open(ctx, tt.url, Options{})
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			defer s.Close()
			if got := fmt.Sprintf("%T", s); got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.url, got, tt.want)
			}
		})
	}

	if s, _ := Open(ctx, "file:///tmp/out.json", Options{}); s.(*FileSink).Path() != "/tmp/out.json" {
		t.Errorf("file path = %q", s.(*FileSink).Path())
	}
	for _, bad := range []string{"s3://bucket/key", "redis://:bad:port/x", "mongodb://"} {
		if _, err := Open(ctx, bad, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Open(%q) error = %v, want INVALID_INPUT", bad, err)
		}
	}
}

func TestRunMeta(t *testing.T) {
	meta := newRunMeta(testSnapshot())
	if meta.RunID != "run-1" || meta.Resources != 1 {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.MusicTargets) != 1 || meta.MusicTargets[0].URI != "https://x/doc.mei" {
		t.Errorf("music targets = %+v", meta.MusicTargets)
	}
	if RunKey("run-1") != "annograph:run:run-1" {
		t.Errorf("RunKey() = %q", RunKey("run-1"))
	}
}

func TestResourceDoc(t *testing.T) {
	snap := testSnapshot()
	doc, err := newResourceDoc(snap, snap.Resources["https://x/a"])
	if err != nil {
		t.Fatal(err)
	}
	if doc.RunID != "run-1" || len(doc.Targets) != 1 || doc.Targets[0].Kind != string(resource.KindMusicNotation) {
		t.Errorf("doc = %+v", doc)
	}
	var expanded map[string]any
	if err := json.Unmarshal([]byte(doc.Expanded), &expanded); err != nil || expanded["@id"] != "https://x/a" {
		t.Errorf("expanded = %s (%v)", doc.Expanded, err)
	}
}
