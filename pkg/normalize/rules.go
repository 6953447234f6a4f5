package normalize

import (
	"slices"
	"strings"

	"github.com/matzehuels/annograph/pkg/resource"
)

// MediaRule recognizes one media kind. Suffixes are matched case-sensitively
// against the end of a fragment-free path; ContentTypes against the primary
// token of a probed Content-Type.
type MediaRule struct {
	Kind         resource.MediaKind
	Suffixes     []string
	ContentTypes []string
}

// Rules are the classification tables. Rules are consulted in order and the
// first match wins.
type Rules struct {
	Media    []MediaRule
	Traverse []string // content types that mark a candidate as a linked-data document
}

// DefaultRules returns the built-in tables: ".mei" for music notation,
// common audio extensions and types for audio, and the usual RDF
// serializations for traversal.
func DefaultRules() Rules {
	return Rules{
		Media: []MediaRule{
			{Kind: resource.KindMusicNotation, Suffixes: []string{".mei"}},
			{
				Kind:         resource.KindAudio,
				Suffixes:     []string{".mp3", ".wav", ".ogg"},
				ContentTypes: []string{"audio/mpeg", "audio/wav", "audio/ogg"},
			},
		},
		Traverse: []string{
			"application/ld+json",
			"application/json",
			"text/turtle",
			"application/rdf+xml",
			"text/n3",
			"application/n-triples",
		},
	}
}

// KindBySuffix returns the media kind whose suffix ends path.
func (r Rules) KindBySuffix(path string) (resource.MediaKind, bool) {
	for _, m := range r.Media {
		for _, s := range m.Suffixes {
			if strings.HasSuffix(path, s) {
				return m.Kind, true
			}
		}
	}
	return resource.KindUnknown, false
}

// KindByContentType returns the media kind listing contentType.
func (r Rules) KindByContentType(contentType string) (resource.MediaKind, bool) {
	for _, m := range r.Media {
		if slices.Contains(m.ContentTypes, contentType) {
			return m.Kind, true
		}
	}
	return resource.KindUnknown, false
}

// Traversable reports whether contentType marks a linked-data document.
func (r Rules) Traversable(contentType string) bool {
	return slices.Contains(r.Traverse, contentType)
}
