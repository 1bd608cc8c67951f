package model

import "time"

// WorkRequest describes a single work the caller wants harvested.
type WorkRequest struct {
	// Title is the wiki page title, e.g. "Aeneis" or "Cato Maior de Senectute".
	Title string

	// Priority controls scheduling and the retry budget. Critical works
	// run first and sequentially; everything else is batched.
	Priority Priority

	// IndexHint marks the work as a known index page. The classifier
	// ORs this hint into its own decision, so a hinted work is treated
	// as an index even when its confidence score falls below threshold.
	IndexHint bool
}

// ClassificationResult is the outcome of index-vs-leaf classification.
type ClassificationResult struct {
	// IsIndex is true when the page is a table of contents linking to
	// chapter subpages rather than a single content page.
	IsIndex bool

	// Confidence is the additive score in [0, 100] that produced the
	// decision. A curated-table hit pins it to 100.
	Confidence int

	// ChapterLinks is the number of chapter-shaped links found in the
	// raw markup.
	ChapterLinks int

	// WordCount is the markup-stripped word count used for the density
	// and short-page heuristics.
	WordCount int
}

// ChapterSource records how a chapter list was obtained.
type ChapterSource string

const (
	// ChapterSourceCurated means the list came from the curated table of
	// well-known works.
	ChapterSourceCurated ChapterSource = "curated"

	// ChapterSourcePattern means the list was extracted from the raw
	// markup by link patterns.
	ChapterSourcePattern ChapterSource = "pattern-extracted"
)

// ChapterSet is the ordered chapter list resolved for an index page.
type ChapterSet struct {
	// Work is the parent work title the chapters belong to.
	Work string

	// Titles are the chapter page titles in reading order.
	Titles []string

	// Source records whether the list is curated or pattern-extracted.
	Source ChapterSource
}

// Empty reports whether resolution failed to find any chapters.
// The orchestrator maps an empty set to ErrorKindUnresolvedIndex.
func (cs ChapterSet) Empty() bool {
	return len(cs.Titles) == 0
}

// FetchResult is the outcome of fetching one page's content.
type FetchResult struct {
	// Title is the page title that was fetched.
	Title string

	// Success is true when usable content was obtained.
	Success bool

	// Content is the cleaned text. Empty when Success is false.
	Content string

	// Err categorizes the failure. ErrorKindNone when Success is true.
	Err ErrorKind

	// ByteLength is len(Content), recorded separately so summaries and
	// logs don't need to hold the content itself.
	ByteLength int

	// Attempts is how many fetch attempts were made, including the one
	// that succeeded. Single-attempt works always report 1.
	Attempts int
}

// ContentRecord is the unit handed to a downstream sink for persistence.
// The sink's storage format is intentionally outside this package's scope.
type ContentRecord struct {
	// Title is the page title of the harvested content.
	Title string

	// Parent is the index work this page belongs to, or empty for a
	// leaf work harvested directly.
	Parent string

	// SourceURL is the canonical wiki URL the content came from.
	SourceURL string

	// RetrievedAt is when the content was fetched.
	RetrievedAt time.Time

	// Text is the cleaned content.
	Text string
}
