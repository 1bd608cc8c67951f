package wiki

import "errors"

// Wiki client errors.
//
// Design decision: We define specific error values rather than wrapping
// all failures generically. Callers dispatch on them with errors.Is to
// map transport outcomes onto the harvest error taxonomy (a 404 is a
// permanent NotFound, everything else network trouble worth retrying).
var (
	// ErrPageNotFound is returned when the wiki responds 404 for a
	// title. The page does not exist under that exact name.
	ErrPageNotFound = errors.New("page not found")

	// ErrEmptyTitle is returned when a request is made with an empty
	// page title.
	ErrEmptyTitle = errors.New("empty page title")

	// ErrUnexpectedStatus is returned for HTTP status codes other than
	// 200 and 404. The wrapped message carries the actual code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)
