package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matzehuels/annograph/pkg/registry"
)

// FileSink writes each snapshot as indented JSON to a file, replacing
// whatever the file held before. "-" writes to stdout.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Write implements [Sink].
func (s *FileSink) Write(_ context.Context, snap *registry.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if s.path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Close does nothing.
func (s *FileSink) Close() error { return nil }

// Path returns the destination file.
func (s *FileSink) Path() string { return s.path }

var _ Sink = (*FileSink)(nil)
