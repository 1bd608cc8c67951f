package fetch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/model"
	"github.com/willowgs/viciharvest/internal/wiki"
)

// Cache stores raw page markup between runs. The database package
// provides the SQLite-backed implementation with TTL invalidation.
type Cache interface {
	// Get returns the cached payload for a title and whether a valid
	// (non-expired) entry existed.
	Get(ctx context.Context, title string) (string, bool, error)

	// Put stores the payload for a title, replacing any older entry.
	Put(ctx context.Context, title, payload string) error
}

// Fetcher retrieves page content, preferring the rendered export and
// falling back to stripped raw markup.
type Fetcher struct {
	client    *wiki.Client
	minLength int
	cache     Cache
	logger    *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMinContentLength sets the minimum viable content length in bytes.
func WithMinContentLength(n int) FetcherOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.minLength = n
		}
	}
}

// WithCache sets the raw-markup cache. Without one, every Raw call hits
// the network.
func WithCache(cache Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

// WithLogger sets the logger for fetch-path debug output.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher backed by the given wiki client.
func NewFetcher(client *wiki.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    client,
		minLength: config.DefaultMinContentLength,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Raw returns a page's wiki markup, consulting the cache first. The
// markup is returned unmodified; classification and resolution need the
// link syntax intact.
func (f *Fetcher) Raw(ctx context.Context, title string) (string, error) {
	if f.cache != nil {
		if payload, ok, err := f.cache.Get(ctx, title); err == nil && ok {
			f.logger.Debug("raw cache hit", "title", title, "bytes", len(payload))
			return payload, nil
		}
	}

	raw, err := f.client.RawContent(ctx, title)
	if err != nil {
		return "", err
	}

	if f.cache != nil {
		if err := f.cache.Put(ctx, title, raw); err != nil {
			// A failed cache write costs a future network round trip,
			// nothing more.
			f.logger.Warn("raw cache write failed", "title", title, "error", err)
		}
	}
	return raw, nil
}

// Fetch retrieves clean content for a page. The export endpoint is
// tried first; the raw-markup fallback handles export failures and
// too-short export responses. The returned result always has Attempts
// set to 1; retry accounting is the orchestrator's job.
func (f *Fetcher) Fetch(ctx context.Context, title string) model.FetchResult {
	result := model.FetchResult{Title: title, Attempts: 1}

	exported, err := f.client.ExportText(ctx, title)
	if err == nil {
		cleaned := CleanExport(exported)
		// Viability is strictly greater than the minimum: a response of
		// exactly the threshold length is an error page, not a work.
		if len(cleaned) > f.minLength {
			f.logger.Debug("export fetch succeeded", "title", title, "bytes", len(cleaned))
			result.Success = true
			result.Content = cleaned
			result.ByteLength = len(cleaned)
			return result
		}
		f.logger.Debug("export content too short, falling back to raw",
			"title", title,
			"bytes", len(cleaned),
			"min", f.minLength,
		)
	} else {
		f.logger.Debug("export fetch failed, falling back to raw", "title", title, "error", err)
	}

	raw, err := f.Raw(ctx, title)
	if err != nil {
		result.Err = Kind(err)
		return result
	}

	stripped := StripWikitext(raw)
	if len(stripped) <= f.minLength {
		result.Err = model.ErrorKindTooShort
		return result
	}

	f.logger.Debug("raw fallback succeeded", "title", title, "bytes", len(stripped))
	result.Success = true
	result.Content = stripped
	result.ByteLength = len(stripped)
	return result
}

// PageURL returns the canonical URL for a title, for ContentRecords.
func (f *Fetcher) PageURL(title string) string {
	return f.client.PageURL(title)
}

// Kind maps a wiki client error onto the harvest error taxonomy.
// A 404 is permanent NotFound; everything else that went wrong on the
// wire is a network failure.
func Kind(err error) model.ErrorKind {
	switch {
	case err == nil:
		return model.ErrorKindNone
	case errors.Is(err, wiki.ErrPageNotFound):
		return model.ErrorKindNotFound
	default:
		return model.ErrorKindNetwork
	}
}
