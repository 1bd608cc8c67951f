package wiki

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/willowgs/viciharvest/internal/config"
)

// maxBodySize limits how much of a response body is read. Even the
// longest works on the wiki are a few megabytes of text; anything larger
// is a misbehaving endpoint.
const maxBodySize = 10 * 1024 * 1024

// Client talks to the wikisource site over HTTPS. It exposes the two
// retrieval paths the harvester uses: raw wiki markup and rendered
// plain-text export.
type Client struct {
	// httpClient is the underlying HTTP client. Its Timeout applies to
	// each request as a whole, including body read.
	httpClient *http.Client

	// apiBase is the MediaWiki root, e.g. "https://la.wikisource.org/w".
	apiBase string

	// exportBase is the export tool root.
	exportBase string

	// exportLang is the language code sent to the export tool.
	exportLang string

	// userAgent is sent with every request.
	userAgent string

	// logger receives request-level debug logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Used by tests to point the
// client at an httptest server and by callers that need custom transport
// settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIBaseURL sets the MediaWiki root URL.
func WithAPIBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.apiBase = strings.TrimSuffix(base, "/")
		}
	}
}

// WithExportBaseURL sets the export tool root URL.
func WithExportBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.exportBase = strings.TrimSuffix(base, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger for request-level debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a wiki client with default endpoints and timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: config.DefaultTimeout},
		apiBase:    config.DefaultAPIBaseURL,
		exportBase: config.DefaultExportBaseURL,
		exportLang: "la",
		userAgent:  config.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// rawURL builds the index.php raw-action URL for a title.
func (c *Client) rawURL(title string) string {
	q := url.Values{}
	q.Set("title", title)
	q.Set("action", "raw")
	return c.apiBase + "/index.php?" + q.Encode()
}

// RawContent fetches a page's wiki markup via the index.php raw action.
// Returns ErrPageNotFound when the page does not exist.
func (c *Client) RawContent(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}
	return c.get(ctx, c.rawURL(title))
}

// Exists reports whether a page exists, via a HEAD request against the
// raw action so no body is transferred. Callers that need the content
// anyway should call RawContent and check for ErrPageNotFound instead
// of probing first.
func (c *Client) Exists(ctx context.Context, title string) (bool, error) {
	if strings.TrimSpace(title) == "" {
		return false, ErrEmptyTitle
	}

	reqURL := c.rawURL(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body close

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, reqURL)
	}
}

// ExportText fetches a page rendered to plain text by the export tool.
// The export path expands templates and transclusions, which raw markup
// leaves unexpanded, so this is the preferred content source.
func (c *Client) ExportText(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}

	q := url.Values{}
	q.Set("lang", c.exportLang)
	q.Set("format", "txt")
	q.Set("page", title)
	reqURL := c.exportBase + "/tool/book.php?" + q.Encode()

	return c.get(ctx, reqURL)
}

// PageURL returns the canonical human-readable URL for a page title.
// Recorded in ContentRecords so downstream consumers can cite sources.
func (c *Client) PageURL(title string) string {
	site := strings.TrimSuffix(c.apiBase, "/w")
	return site + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// get performs a GET request and returns the body as a string.
func (c *Client) get(ctx context.Context, reqURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body close

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to body read.
	case http.StatusNotFound:
		return "", ErrPageNotFound
	default:
		return "", fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, reqURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("wiki request",
		"url", reqURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	return string(body), nil
}
