// Package resolve turns an index page into its ordered chapter list.
//
// Resolution has two tiers. The curated table of well-known works wins
// outright: those chapter lists were verified by hand and the page's
// actual markup, which often carries navigation clutter, is ignored.
// Everything else goes through pattern extraction over the raw markup:
// chapter-shaped link patterns are applied in order, link targets in
// non-content namespaces are filtered out, and the survivors are
// deduplicated preserving first appearance.
//
// An empty result is meaningful: it tells the orchestrator the index
// could not be resolved and the work must fail with UnresolvedIndex.
package resolve
