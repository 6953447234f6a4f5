// Package fetch retrieves linked-data documents over HTTP.
//
// [Fetcher.Fetch] asks for the JSON-LD representation of a resource and
// decodes it; [Fetcher.Probe] issues a HEAD request to learn what a
// reference points at before deciding whether to follow it:
//
//	f := fetch.New(httputil.NewClient(30*time.Second, ""), fetch.Options{})
//	doc, err := f.Fetch(ctx, "https://example.org/anno.jsonld")
//	ct, err := f.Probe(ctx, "https://example.org/other")
//
// Nothing is retried. Errors are [errors.Error] values coded NETWORK_ERROR,
// HTTP_ERROR or PARSE_ERROR so the caller can log and abandon the one
// branch that failed.
//
// The per-request deadline comes from the [http.Client]. A client without a
// timeout can hang a branch indefinitely, which in turn keeps a traversal
// from ever completing.
package fetch
