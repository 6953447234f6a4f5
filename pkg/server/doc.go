// Package server exposes traversals over HTTP.
//
// Every POST to /api/traversals creates a new coordinator, so concurrent
// traversals never share a registry. The traversal keeps running after the
// request returns; clients poll the run's status until its state is
// "complete" and then query resources, media targets, textual bodies,
// failures or the node-link diagram. Completed runs are also written to the
// runner's sink.
//
// The server can additionally serve a directory of test documents under
// /static/test/, with Content-Types chosen by file extension, so a local
// annotation graph can be traversed without any other web server.
package server
