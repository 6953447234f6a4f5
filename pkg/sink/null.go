package sink

import (
	"context"

	"github.com/matzehuels/annograph/pkg/registry"
)

// NullSink discards every snapshot.
// Useful for testing or when no output store is configured.
type NullSink struct{}

// NewNullSink creates a null sink.
func NewNullSink() Sink {
	return &NullSink{}
}

// Write does nothing.
func (s *NullSink) Write(context.Context, *registry.Snapshot) error {
	return nil
}

// Close does nothing.
func (s *NullSink) Close() error {
	return nil
}

// Ensure NullSink implements Sink.
var _ Sink = (*NullSink)(nil)
