// Package sink publishes traversal snapshots to external stores.
//
// A [Sink] receives the [registry.Snapshot] of a completed run. Sinks are
// write-only: nothing written here is ever read back by a later traversal,
// so each run starts from an empty registry.
//
// # Backends
//
//   - [FileSink]: indented JSON file (or stdout with "-")
//   - [RedisSink]: one hash per run, optional TTL
//   - [MongoSink]: resources and runs collections, upserted by run id
//   - [NullSink]: discards everything
//
// [Open] picks the backend from a URL and [Multi] fans a snapshot out to
// several sinks at once:
//
//	s, err := sink.Open(ctx, "redis://localhost:6379/0", sink.Options{TTL: 24 * time.Hour})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	err = s.Write(ctx, coordinator.Snapshot(runID))
package sink
