package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror the operational defaults that have proven workable
// against la.wikisource.org: aggressive enough to harvest a corpus in
// reasonable time, polite enough not to trip rate limiting.
const (
	// DefaultAPIBaseURL is the MediaWiki endpoint root of the Latin
	// wikisource. Raw page markup and existence checks go through
	// index.php/api.php under this root.
	DefaultAPIBaseURL = "https://la.wikisource.org/w"

	// DefaultExportBaseURL is the Wikimedia export tool that renders a
	// page to plain text. It is the primary fetch path because it
	// resolves templates and transclusions that raw markup leaves
	// unexpanded.
	DefaultExportBaseURL = "https://ws-export.wmcloud.org"

	// DefaultConcurrency is the size of the fetch permit pool. Ten
	// concurrent requests keeps throughput high without hammering the
	// wiki; Wikimedia's API etiquette asks clients to stay well below
	// the point of degrading service.
	DefaultConcurrency = 10

	// DefaultBatchSize is how many works are processed per batch.
	// Batches exist so that crawl state can be persisted at stable
	// points and so the pause between batches gives the wiki breathing
	// room.
	DefaultBatchSize = 10

	// DefaultBatchPause is the pause between batches. One second is a
	// politeness setting, not a correctness one.
	DefaultBatchPause = 1 * time.Second

	// DefaultTimeout is the per-request timeout. The export tool can
	// take tens of seconds to render a long work, so this is generous.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the attempt budget for critical works.
	// Three attempts with exponential backoff recovers from transient
	// network trouble without stalling the run on a dead page.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the base delay before a retry. The actual
	// delay grows by DefaultRetryMultiplier per attempt.
	DefaultRetryBackoff = 1 * time.Second

	// DefaultRetryMultiplier grows the backoff between attempts.
	DefaultRetryMultiplier = 1.5

	// DefaultMinContentLength is the minimum viable content length in
	// bytes. Responses at or below it are export-tool error pages or
	// stub redirects, not works.
	DefaultMinContentLength = 50

	// DefaultCacheTTL is how long cached raw page markup stays valid.
	// Wikisource texts change rarely; twelve hours keeps repeat runs
	// cheap while picking up edits within a day.
	DefaultCacheTTL = 12 * time.Hour

	// DefaultUserAgent identifies the harvester in HTTP requests.
	// Wikimedia asks API clients to send a descriptive User-Agent with
	// contact information.
	DefaultUserAgent = "viciharvest/1.0 (+https://github.com/willowgs/viciharvest)"

	// AppName is the application name used for XDG directory paths.
	AppName = "viciharvest"
)

// Config holds all configuration options for a harvest run.
// It is populated from CLI flags and the optional work-list file, then
// validated once before any network activity begins.
type Config struct {
	// APIBaseURL is the MediaWiki root used for raw markup and
	// existence checks.
	APIBaseURL string

	// ExportBaseURL is the root of the plain-text export tool.
	ExportBaseURL string

	// Concurrency is the size of the global fetch permit pool.
	// No more than this many fetches are ever in flight at once.
	Concurrency int

	// BatchSize is the number of non-critical works per batch.
	BatchSize int

	// BatchPause is the pause between batches.
	BatchPause time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxRetries is the attempt budget for critical-priority works.
	// Non-critical works always get exactly one attempt.
	MaxRetries int

	// RetryBackoff is the base delay before retrying a critical work.
	RetryBackoff time.Duration

	// MinContentLength is the minimum viable content length in bytes.
	// Responses below it trigger the fallback path or a TooShort error.
	MinContentLength int

	// CacheTTL is how long cached raw markup stays valid. Zero disables
	// the cache.
	CacheTTL time.Duration

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// WorkListPath is the path to a YAML work-list file. If empty, the
	// tool searches for .viciharvest in the current directory and then
	// in the user's home directory.
	WorkListPath string

	// OutputDir is where the file sink writes harvested text.
	// Defaults to the XDG data directory.
	OutputDir string

	// DBDir is the directory for the SQLite state database. When empty,
	// state is kept in memory only and runs are not resumable.
	DBDir string

	// ForceRefresh re-fetches titles already marked completed in the
	// crawl state.
	ForceRefresh bool

	// Verbose enables slog.LevelDebug output. When false, only
	// warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON run-summary output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown run-summary output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run summary. When
	// empty, the summary goes to stdout.
	ReportFile string

	// Titles is the list of work titles from positional arguments.
	// Merged with the work-list file; at least one work must come from
	// somewhere.
	Titles []string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe defaults that work against the public wiki.
// Callers override specific values after creation.
func NewConfig() *Config {
	return &Config{
		APIBaseURL:       DefaultAPIBaseURL,
		ExportBaseURL:    DefaultExportBaseURL,
		Concurrency:      DefaultConcurrency,
		BatchSize:        DefaultBatchSize,
		BatchPause:       DefaultBatchPause,
		Timeout:          DefaultTimeout,
		MaxRetries:       DefaultMaxRetries,
		RetryBackoff:     DefaultRetryBackoff,
		MinContentLength: DefaultMinContentLength,
		CacheTTL:         DefaultCacheTTL,
		UserAgent:        DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for viciharvest.
// On Linux: ~/.local/share/viciharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for viciharvest.
// On Linux: ~/.cache/viciharvest
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one error often makes
// later ones irrelevant.
func (c *Config) Validate() error {
	if len(c.Titles) == 0 && c.WorkListPath == "" {
		return ErrNoWork
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.BatchPause < 0 {
		return ErrInvalidBatchPause
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}
	if c.MinContentLength < 0 {
		return ErrInvalidMinLength
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
