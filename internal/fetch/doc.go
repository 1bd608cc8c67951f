// Package fetch turns wiki pages into clean text.
//
// The export tool is the primary path because it renders templates and
// transclusions into readable prose. When the export response is missing,
// fails, or comes back too short to be a real work, the fetcher falls
// back to the page's raw wiki markup and strips the markup itself.
//
// Both paths end at the same bar: content shorter than the configured
// minimum viable length is not a work, it is an error page or a stub,
// and the fetch reports TooShort.
package fetch
