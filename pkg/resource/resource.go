package resource

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"

	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/vocab"
)

// MediaKind classifies a target by how it is presented.
type MediaKind string

const (
	KindMusicNotation MediaKind = "music-notation"
	KindAudio         MediaKind = "audio"
	KindUnknown       MediaKind = "unknown"
)

// ParseMediaKind maps a configured kind name to a MediaKind.
// Unrecognized names yield KindUnknown and false.
func ParseMediaKind(s string) (MediaKind, bool) {
	switch MediaKind(s) {
	case KindMusicNotation:
		return KindMusicNotation, true
	case KindAudio:
		return KindAudio, true
	default:
		return KindUnknown, false
	}
}

// FragmentSet is a set of URI fragments (without the leading "#").
// The zero value is not usable; create sets with [NewFragmentSet].
type FragmentSet map[string]struct{}

// NewFragmentSet returns a set holding the non-empty fragments given.
func NewFragmentSet(fragments ...string) FragmentSet {
	s := make(FragmentSet, len(fragments))
	for _, f := range fragments {
		s.Add(f)
	}
	return s
}

// Add inserts f. Empty fragments are ignored.
func (s FragmentSet) Add(f string) {
	if f != "" {
		s[f] = struct{}{}
	}
}

// Has reports whether f is in the set.
func (s FragmentSet) Has(f string) bool {
	_, ok := s[f]
	return ok
}

// Len returns the number of fragments.
func (s FragmentSet) Len() int { return len(s) }

// Merge adds every fragment of other to s.
func (s FragmentSet) Merge(other FragmentSet) {
	for f := range other {
		s[f] = struct{}{}
	}
}

// Clone returns an independent copy of s.
func (s FragmentSet) Clone() FragmentSet {
	c := make(FragmentSet, len(s))
	c.Merge(s)
	return c
}

// Sorted returns the fragments in lexical order.
func (s FragmentSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s FragmentSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of fragments.
func (s *FragmentSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewFragmentSet(list...)
	return nil
}

// Target groups every reference to one media file. URI is the reference with
// its fragment removed; Fragments collects the removed fragments.
type Target struct {
	URI       string      `json:"uri"`
	Kind      MediaKind   `json:"kind"`
	Fragments FragmentSet `json:"fragments"`
}

// NewTarget returns an empty target of the given kind.
func NewTarget(uri string, kind MediaKind) *Target {
	return &Target{URI: uri, Kind: kind, Fragments: NewFragmentSet()}
}

// Clone returns a deep copy of t.
func (t *Target) Clone() *Target {
	return &Target{URI: t.URI, Kind: t.Kind, Fragments: t.Fragments.Clone()}
}

// RawDocument is a decoded document as retrieved, before expansion.
type RawDocument struct {
	URI         string // canonical URI the document was requested under
	ContentType string // primary media type token of the response
	Body        any    // decoded JSON value
}

// Resource is the normalized form of one fetched document. It is created
// exactly once per distinct canonical URI and never mutated after it has been
// registered.
type Resource struct {
	URI       string             `json:"uri"`
	Raw       any                `json:"raw,omitempty"`
	Expanded  map[string]any     `json:"expanded"`
	Node      ld.Node            `json:"-"`
	Compacted map[string]any     `json:"compacted,omitempty"`
	Types     []vocab.Type       `json:"-"`
	Targets   map[string]*Target `json:"targets,omitempty"`
}

// HasType reports whether t is among the resource's declared types.
func (r *Resource) HasType(t vocab.Type) bool {
	return slices.Contains(r.Types, t)
}

// Target returns the target grouped under the stripped uri, creating it with
// kind if absent. A target keeps the kind it was first created with.
func (r *Resource) Target(uri string, kind MediaKind) *Target {
	if r.Targets == nil {
		r.Targets = make(map[string]*Target)
	}
	t, ok := r.Targets[uri]
	if !ok {
		t = NewTarget(uri, kind)
		r.Targets[uri] = t
	}
	return t
}

// TargetsOf returns the resource's targets of the given kind.
func (r *Resource) TargetsOf(kind MediaKind) []*Target {
	var out []*Target
	for _, t := range r.Targets {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *Target) int { return strings.Compare(a.URI, b.URI) })
	return out
}

// Strip removes the fragment from u, returning the stripped URI string and the
// fragment. The query is kept. u is not modified.
func Strip(u *url.URL) (string, string) {
	c := *u
	frag := c.Fragment
	c.Fragment = ""
	c.RawFragment = ""
	return c.String(), frag
}
