// Package httputil provides the HTTP plumbing shared by the fetcher, the
// JSON-LD document loader and the sinks.
//
// # Client
//
// [NewClient] builds the single [http.Client] used for one traversal. Its
// [Transport] stamps a User-Agent and reports every request to the
// observability HTTP hooks:
//
//	client := httputil.NewClient(30*time.Second, "annograph/"+buildinfo.Version)
//
// Requests are never retried. A failed request is reported once and the
// caller decides what to abandon.
//
// # Media types
//
// [MediaType] reduces a Content-Type header to its primary token:
//
//	httputil.MediaType("application/ld+json; charset=utf-8") // "application/ld+json"
//
// Tokens are compared case-sensitively by the classifier, so the case of the
// header is kept.
package httputil
