// Package wiki implements the HTTP client for the wikisource site.
//
// Two endpoints matter:
//   - the MediaWiki index.php "raw" action, which returns a page's wiki
//     markup exactly as stored
//   - the Wikimedia export tool, which renders a page (templates and
//     transclusions expanded) to plain text
//
// The client only moves bytes; deciding whether content is usable and
// falling back between endpoints is the fetch package's job.
package wiki
