package registry

import (
	"time"

	"github.com/matzehuels/annograph/pkg/ld"
	"github.com/matzehuels/annograph/pkg/resource"
)

// Snapshot is a point-in-time copy of every query result of a registry.
// Resources are shared with the registry; they are immutable once registered.
type Snapshot struct {
	RunID         string                          `json:"run_id"`
	Root          string                          `json:"root,omitempty"`
	Generated     time.Time                       `json:"generated"`
	Resources     map[string]*resource.Resource   `json:"resources"`
	MusicTargets  map[string]resource.FragmentSet `json:"music_targets"`
	AudioTargets  map[string]resource.FragmentSet `json:"audio_targets"`
	TextualBodies []ld.Node                       `json:"textual_bodies"`
	Blanks        map[string][]string             `json:"blanks,omitempty"`
	Failures      []Failure                       `json:"failures,omitempty"`
}

// Snapshot captures the registry under a single read lock, so all fields
// agree with each other even while cycles keep registering.
func (r *Registry) Snapshot(runID, root string) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Snapshot{
		RunID:         runID,
		Root:          root,
		Generated:     time.Now().UTC(),
		Resources:     r.resources(),
		MusicTargets:  r.mediaTargets(resource.KindMusicNotation),
		AudioTargets:  r.mediaTargets(resource.KindAudio),
		TextualBodies: r.textualBodies(),
		Blanks:        r.allBlanks(),
		Failures:      r.failures(),
	}
}

// URIs returns the snapshot's resource URIs in lexical order.
func (s *Snapshot) URIs() []string {
	return sortedKeys(s.Resources)
}
