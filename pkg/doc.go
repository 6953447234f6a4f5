// Package pkg provides the core libraries of annograph, a crawler for
// linked music annotations.
//
// # Overview
//
// annograph starts from one or more Web Annotation URIs, follows their links
// across the web, and collects what the annotation graph points at: MEI
// fragments, audio files and textual bodies. The pkg directory is organized
// into these areas:
//
//  1. Linked data: [vocab] (namespaces, traversal predicates), [ld] (JSON-LD
//     expansion and node access), [resource] (typed resources and targets)
//  2. Engine: [fetch], [normalize], [registry] and [traverse]
//  3. Output: [render/nodelink] diagrams and [sink] backends
//  4. Orchestration: [pipeline] (config to engine) and [server] (HTTP API)
//  5. Infrastructure: [config], [errors], [httputil], [observability]
//
// # Architecture
//
// The data flow of one traversal:
//
//	root URI
//	    ↓
//	[fetch] (dereference, parse, expand to JSON-LD)
//	    ↓
//	[normalize] (classify nodes, extract links and media targets)
//	    ↓
//	[registry] (store resources, record failures)
//	    ↓
//	[traverse] (schedule unseen links until nothing is in flight)
//	    ↓
//	snapshot → DOT/SVG/JSON, file/Redis/MongoDB
//
// # Quick Start
//
//	runner, err := pipeline.NewRunner(config.Default(), sink.NewNullSink(), logger)
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    URIs:    []string{"https://example.org/annotations/1"},
//	    Formats: []string{pipeline.FormatDOT},
//	})
//	fmt.Println(result.Stats)
//
// [vocab]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/vocab
// [ld]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/ld
// [resource]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/resource
// [fetch]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/fetch
// [normalize]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/normalize
// [registry]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/registry
// [traverse]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/traverse
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/render/nodelink
// [sink]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/annograph/pkg/observability
package pkg
