package model

import "errors"

// Harvest failure sentinels.
// These errors are the typed taxonomy carried by FetchResult and recorded
// in the crawl state for failed works.
//
// Design decision: We define specific error values rather than wrapping all
// failures generically. This allows callers to handle different failure
// modes appropriately (e.g., a NotFound work is permanently skippable while
// a network failure may succeed on the next run).
var (
	// ErrNotFound is returned when the wiki reports that the page does
	// not exist. Retrying will not help; the title is wrong or deleted.
	ErrNotFound = errors.New("page not found on the wiki")

	// ErrTooShort is returned when both the export endpoint and the raw
	// fallback produced content below the minimum viable length.
	ErrTooShort = errors.New("content below minimum viable length")

	// ErrNetworkFailure is returned for transport-level problems:
	// connection errors, timeouts, and unexpected HTTP status codes.
	ErrNetworkFailure = errors.New("network failure talking to the wiki")

	// ErrUnresolvedIndex is returned when a page classified as an index
	// yields no chapter titles from either the curated table or pattern
	// extraction.
	ErrUnresolvedIndex = errors.New("index page with no resolvable chapters")

	// ErrMaxRetriesExceeded is returned when a critical work exhausted
	// its retry budget without a successful fetch.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// ErrorKind identifies the failure category of a fetch or harvest step.
// The zero value means no error.
type ErrorKind int

const (
	// ErrorKindNone indicates success.
	ErrorKindNone ErrorKind = iota

	// ErrorKindNotFound indicates the page does not exist.
	ErrorKindNotFound

	// ErrorKindTooShort indicates the content was below the minimum
	// viable length on both fetch paths.
	ErrorKindTooShort

	// ErrorKindNetwork indicates a transport-level failure.
	ErrorKindNetwork

	// ErrorKindUnresolvedIndex indicates an index page whose chapters
	// could not be resolved.
	ErrorKindUnresolvedIndex

	// ErrorKindMaxRetries indicates a critical work that failed every
	// attempt in its retry budget.
	ErrorKindMaxRetries
)

// String returns the snake_case name stored in the database and used in
// log attributes and report output.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindNotFound:
		return "not_found"
	case ErrorKindTooShort:
		return "too_short"
	case ErrorKindNetwork:
		return "network_failure"
	case ErrorKindUnresolvedIndex:
		return "unresolved_index"
	case ErrorKindMaxRetries:
		return "max_retries_exceeded"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for this kind, or nil for ErrorKindNone.
func (k ErrorKind) Err() error {
	switch k {
	case ErrorKindNone:
		return nil
	case ErrorKindNotFound:
		return ErrNotFound
	case ErrorKindTooShort:
		return ErrTooShort
	case ErrorKindNetwork:
		return ErrNetworkFailure
	case ErrorKindUnresolvedIndex:
		return ErrUnresolvedIndex
	case ErrorKindMaxRetries:
		return ErrMaxRetriesExceeded
	default:
		return errors.New("unknown error kind")
	}
}

// ParseErrorKind converts a stored string back to an ErrorKind.
// Unknown strings map to ErrorKindNone; the database is the only caller
// and it never stores unknown values.
func ParseErrorKind(s string) ErrorKind {
	switch s {
	case "not_found":
		return ErrorKindNotFound
	case "too_short":
		return ErrorKindTooShort
	case "network_failure":
		return ErrorKindNetwork
	case "unresolved_index":
		return ErrorKindUnresolvedIndex
	case "max_retries_exceeded":
		return ErrorKindMaxRetries
	default:
		return ErrorKindNone
	}
}

// Retryable reports whether a failure of this kind may succeed on a later
// attempt. NotFound and UnresolvedIndex are permanent for a given title.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindNetwork, ErrorKindTooShort:
		return true
	default:
		return false
	}
}
