package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoWork is returned when no work title or work-list file is
	// specified. The harvester has nothing to do.
	ErrNoWork = errors.New("no work specified: provide a title or use --list")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A zero or negative timeout would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the permit pool size is not
	// positive. A pool of zero permits would deadlock every fetch.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no works are ever processed.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidBatchPause is returned when the batch pause is negative.
	// Use 0 for no pause between batches.
	ErrInvalidBatchPause = errors.New("invalid batch pause: must be non-negative")

	// ErrInvalidMaxRetries is returned when the retry budget is not
	// positive. Critical works need at least one attempt.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be positive")

	// ErrInvalidMinLength is returned when the minimum content length is
	// negative. Use 0 to accept any non-empty content.
	ErrInvalidMinLength = errors.New("invalid minimum content length: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
