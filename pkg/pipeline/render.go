package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/render/nodelink"
	"github.com/matzehuels/annograph/pkg/vocab"
)

// Render generates output artifacts in the requested formats.
// The DOT source is built once and shared by the dot and svg formats.
func Render(snap *registry.Snapshot, ns *vocab.Namespaces, formats []string, detailed bool) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))

	var dot string
	dotSource := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(snap, nodelink.Options{Namespaces: ns, Detailed: detailed})
		}
		return dot
	}

	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = json.MarshalIndent(snap, "", "  ")
		case FormatDOT:
			data = []byte(dotSource())
		case FormatSVG:
			data, err = nodelink.RenderSVG(dotSource())
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
