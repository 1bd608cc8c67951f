// Package classify decides whether a work page is a leaf work or an
// index page.
//
// The decision is an additive confidence score over signals in the raw
// markup: how many chapter-shaped links the page carries, how dense
// those links are relative to the prose, structural markers like book
// section headers and author templates, and a bonus for short pages
// that are mostly links. A score of 50 or more means index.
//
// Two inputs short-circuit the scoring: a curated-table hit is
// definitive (confidence 100), and an empty page is never an index.
// A caller-supplied index hint is ORed into the final decision so that
// known indexes survive a weak score, but the score itself is always
// computed honestly from the markup.
package classify
