// Package traverse coordinates the recursive resolution of an annotation web.
//
// A [Coordinator] starts one cycle per URI it is given. Each cycle fetches
// the document, normalizes it, classifies its references, registers the
// resource and feeds newly found linked documents back into
// [Coordinator.Traverse]. When the last outstanding cycle ends, the run is
// complete: callbacks registered with [Coordinator.OnComplete] fire once and
// the channel from [Coordinator.Done] closes.
//
//	c := traverse.New(fetcher, normalizer, traverse.Options{Logger: logger})
//	c.OnComplete(func() {
//	    targets := c.Registry().MediaTargets(resource.KindMusicNotation)
//	    // ...
//	})
//	c.Traverse(ctx, "https://example.org/annotation.jsonld")
//	if err := c.Wait(ctx); err != nil {
//	    return err
//	}
//
// # Termination
//
// A URI is reserved in the registry before its cycle starts, so each
// document is fetched at most once no matter how many references or cycles
// in the graph lead to it. Children are added to the outstanding set by
// their parent's cycle before the parent leaves it; the set can therefore
// only become empty when no reachable work remains.
//
// Failures are local. A document that cannot be fetched, expanded or
// validated is recorded in the registry's failures and its cycle ends
// normally. Nothing is retried.
//
// A request that never returns keeps its cycle outstanding forever. Give
// the fetcher's HTTP client a timeout, or pass a context with a deadline to
// [Coordinator.Wait] to stop waiting.
package traverse
