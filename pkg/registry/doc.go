// Package registry is the single record of what one traversal discovered.
//
// Every canonical URI moves through at most one entry:
//
//	Reserve ──▶ pending ──Register──▶ ready
//	                    └──Fail─────▶ failed
//
// [Registry.Reserve] is the deduplication point: a cycle only fetches a URI
// after winning its reservation, so two branches that reach the same
// document concurrently fetch it once. [Registry.Register] on a URI that is
// already ready keeps the first resource and logs the duplicate.
//
// Queries ([Registry.All], [Registry.MediaTargets], [Registry.TextualBodies]
// and friends) only look at ready entries, return copies, and never wait for
// outstanding cycles. Targets of the same stripped URI are merged across
// resources by fragment-set union:
//
//	reg.MediaTargets(resource.KindMusicNotation)
//	// map["https://x/doc.mei"] = {n1, n2}
package registry
