package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/willowgs/viciharvest/internal/classify"
	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/fetch"
	"github.com/willowgs/viciharvest/internal/model"
	"github.com/willowgs/viciharvest/internal/resolve"
)

// ContentFetcher is what the orchestrator needs from the fetch layer.
// *fetch.Fetcher satisfies it; tests substitute fakes.
type ContentFetcher interface {
	// Fetch retrieves clean content for a page.
	Fetch(ctx context.Context, title string) model.FetchResult

	// Raw retrieves a page's wiki markup for classification.
	Raw(ctx context.Context, title string) (string, error)

	// PageURL returns the canonical URL for a title.
	PageURL(title string) string
}

// StateStore persists crawl state at batch boundaries.
// *database.StateDB satisfies it.
type StateStore interface {
	SaveState(ctx context.Context, state *model.CrawlState) error
}

// Orchestrator drives a harvest run.
type Orchestrator struct {
	fetcher    ContentFetcher
	classifier *classify.Classifier
	resolver   *resolve.Resolver
	sink       Sink

	state *model.CrawlState
	store StateStore

	// sem is the global fetch permit pool. Every network read in the
	// run acquires one permit: classification raws, leaf fetches, and
	// chapter fetches all draw from the same pool.
	sem         *semaphore.Weighted
	concurrency int

	batchSize  int
	batchPause time.Duration

	critical     RetryPolicy
	forceRefresh bool

	logger *slog.Logger

	// mu guards summary accumulation across batch goroutines.
	mu sync.Mutex

	// inflight/peak instrument the permit pool for logging and tests.
	inflight atomic.Int64
	peak     atomic.Int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the permit pool size and per-batch goroutine
// limit. Default is config.DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithBatchSize sets how many non-critical works go in one batch.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBatchPause sets the pause between batches.
func WithBatchPause(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.batchPause = d
		}
	}
}

// WithState seeds the orchestrator with crawl state from a previous
// run, enabling idempotent re-runs.
func WithState(state *model.CrawlState) Option {
	return func(o *Orchestrator) {
		if state != nil {
			o.state = state
		}
	}
}

// WithStateStore sets the persistence target for batch-boundary
// checkpoints. Without one, state lives only in memory.
func WithStateStore(store StateStore) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithCriticalPolicy sets the retry policy for critical works.
func WithCriticalPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) {
		if p.MaxAttempts > 0 {
			o.critical = p
		}
	}
}

// WithForceRefresh re-fetches titles already marked completed.
func WithForceRefresh(force bool) Option {
	return func(o *Orchestrator) {
		o.forceRefresh = force
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an Orchestrator. The classifier, resolver,
// and fetcher are required; a nil sink discards content.
func NewOrchestrator(fetcher ContentFetcher, classifier *classify.Classifier, resolver *resolve.Resolver, sink Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		classifier:  classifier,
		resolver:    resolver,
		sink:        sink,
		concurrency: config.DefaultConcurrency,
		batchSize:   config.DefaultBatchSize,
		batchPause:  config.DefaultBatchPause,
		critical: RetryPolicy{
			MaxAttempts: config.DefaultMaxRetries,
			BaseDelay:   config.DefaultRetryBackoff,
			Multiplier:  config.DefaultRetryMultiplier,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.state == nil {
		o.state = model.NewCrawlState()
	}
	if o.sink == nil {
		o.sink = DiscardSink{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.sem = semaphore.NewWeighted(int64(o.concurrency))
	return o
}

// Run harvests the requested works: critical ones first and
// sequentially, the rest in batches. It returns the run summary; a
// non-nil error means the run aborted (cancellation, a sink failure, or
// a corrupt state invariant), and the summary covers what finished
// before the abort.
func (o *Orchestrator) Run(ctx context.Context, requests []model.WorkRequest) (*Summary, error) {
	start := time.Now()
	summary := newSummary()
	defer func() { summary.Elapsed = time.Since(start) }()

	critical, batched := splitRequests(requests)
	o.logger.Info("starting harvest run",
		"total", len(requests),
		"critical", len(critical),
		"concurrency", o.concurrency,
		"batch_size", o.batchSize,
	)

	for _, req := range critical {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := o.processWork(ctx, req, o.critical, summary); err != nil {
			return summary, err
		}
	}
	if len(critical) > 0 {
		if err := o.checkpoint(ctx); err != nil {
			return summary, err
		}
	}

	single := SingleAttempt()
	batches := chunk(batched, o.batchSize)
	for i, batch := range batches {
		if i > 0 {
			if err := sleepCtx(ctx, o.batchPause); err != nil {
				return summary, err
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.concurrency)
		for _, req := range batch {
			g.Go(func() error {
				return o.processWork(gctx, req, single, summary)
			})
		}
		if err := g.Wait(); err != nil {
			return summary, err
		}
		if err := o.checkpoint(ctx); err != nil {
			return summary, err
		}
		o.logger.Info("batch complete", "batch", i+1, "batches", len(batches))
	}

	o.logger.Info("harvest run complete",
		"processed", summary.Processed,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"chapters", summary.ChaptersFound,
	)
	return summary, nil
}

// PeakInFlight returns the maximum number of network reads that were
// in flight simultaneously. Never exceeds the configured concurrency.
func (o *Orchestrator) PeakInFlight() int {
	return int(o.peak.Load())
}

// checkpoint validates the state invariant and persists the state.
// An invariant violation aborts the run; it means the state store can
// no longer be trusted.
func (o *Orchestrator) checkpoint(ctx context.Context) error {
	if err := o.state.Validate(); err != nil {
		return err
	}
	if o.store == nil {
		return nil
	}
	if err := o.store.SaveState(ctx, o.state); err != nil {
		return fmt.Errorf("failed to checkpoint crawl state: %w", err)
	}
	return nil
}

// processWork drives one requested work to a terminal outcome under the
// given retry policy. The returned error is fatal to the run; ordinary
// work failures are recorded in the summary and crawl state instead.
func (o *Orchestrator) processWork(ctx context.Context, req model.WorkRequest, policy RetryPolicy, summary *Summary) error {
	if o.state.IsCompleted(req.Title) && !o.forceRefresh {
		o.logger.Debug("skipping completed work", "title", req.Title)
		o.record(summary, WorkOutcome{
			Title:     req.Title,
			Priority:  req.Priority,
			Completed: true,
			Skipped:   true,
		}, nil)
		return nil
	}
	o.state.MarkDiscovered(req.Title)

	var (
		kind     model.ErrorKind
		stats    chapterStats
		attempts int
	)
	for attempts < policy.MaxAttempts {
		attempts++
		var err error
		kind, stats, err = o.attemptWork(ctx, req)
		if err != nil {
			return err
		}
		if kind == model.ErrorKindNone || !kind.Retryable() || attempts >= policy.MaxAttempts {
			break
		}
		delay := policy.Delay(attempts)
		o.logger.Warn("work attempt failed, backing off",
			"title", req.Title,
			"attempt", attempts,
			"kind", kind.String(),
			"backoff", delay,
		)
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}

	outcome := WorkOutcome{
		Title:           req.Title,
		Priority:        req.Priority,
		Attempts:        attempts,
		ChaptersFetched: stats.fetched,
	}
	if kind == model.ErrorKindNone {
		outcome.Completed = true
		o.state.MarkCompleted(req.Title)
	} else {
		// A retryable failure that survived the whole budget becomes
		// MaxRetriesExceeded; permanent failures keep their kind.
		if policy.MaxAttempts > 1 && attempts >= policy.MaxAttempts && kind.Retryable() {
			kind = model.ErrorKindMaxRetries
		}
		outcome.Kind = kind
		o.state.MarkFailed(req.Title, kind)
		o.logger.Warn("work failed",
			"title", req.Title,
			"kind", kind.String(),
			"attempts", attempts,
		)
	}
	o.record(summary, outcome, stats.failures)
	return nil
}

// chapterStats accumulates chapter results within one work attempt.
type chapterStats struct {
	// fetched counts chapters fetched successfully this attempt.
	fetched int

	// failures tallies failed chapters by kind.
	failures map[model.ErrorKind]int
}

// attemptWork is one full pass over a work: classify, then fetch the
// leaf or resolve and fan out. Returns the work-level outcome kind.
func (o *Orchestrator) attemptWork(ctx context.Context, req model.WorkRequest) (model.ErrorKind, chapterStats, error) {
	var stats chapterStats

	raw, err := o.rawContent(ctx, req.Title)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.ErrorKindNone, stats, ctxErr
		}
		return fetch.Kind(err), stats, nil
	}

	cls := o.classifier.Classify(req.Title, raw, req.IndexHint)
	o.logger.Debug("classified",
		"title", req.Title,
		"is_index", cls.IsIndex,
		"confidence", cls.Confidence,
		"chapter_links", cls.ChapterLinks,
	)

	if !cls.IsIndex {
		kind, err := o.fetchOne(ctx, req.Title, "")
		return kind, stats, err
	}

	set := o.resolver.Resolve(req.Title, raw)
	if set.Empty() {
		return model.ErrorKindUnresolvedIndex, stats, nil
	}

	kind, err := o.fanOut(ctx, set, &stats)
	return kind, stats, err
}

// fanOut fetches an index work's chapters concurrently. The parent
// succeeds when at least one chapter is harvested; chapters completed
// in earlier runs count as successes without a fetch.
func (o *Orchestrator) fanOut(ctx context.Context, set model.ChapterSet, stats *chapterStats) (model.ErrorKind, error) {
	stats.failures = make(map[model.ErrorKind]int)
	var mu sync.Mutex
	succeeded := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, chapter := range set.Titles {
		g.Go(func() error {
			if o.state.IsCompleted(chapter) && !o.forceRefresh {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return nil
			}
			kind, err := o.fetchOne(gctx, chapter, set.Work)
			if err != nil {
				return err
			}
			mu.Lock()
			if kind == model.ErrorKindNone {
				succeeded++
				stats.fetched++
			} else {
				stats.failures[kind]++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ErrorKindNone, err
	}

	o.logger.Info("index fan-out complete",
		"work", set.Work,
		"chapters", len(set.Titles),
		"fetched", stats.fetched,
		"source", string(set.Source),
	)

	if succeeded > 0 {
		return model.ErrorKindNone, nil
	}
	return dominantKind(stats.failures), nil
}

// acquirePermit blocks until a fetch permit is free and updates the
// in-flight instrumentation. A non-nil error means the context ended
// while waiting.
func (o *Orchestrator) acquirePermit(ctx context.Context) error {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	cur := o.inflight.Add(1)
	for {
		p := o.peak.Load()
		if cur <= p || o.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	return nil
}

// releasePermit returns a permit acquired with acquirePermit.
func (o *Orchestrator) releasePermit() {
	o.inflight.Add(-1)
	o.sem.Release(1)
}

// rawContent retrieves a page's markup under a permit. The
// classification read hits the network like any other fetch, so it
// counts against the pool.
func (o *Orchestrator) rawContent(ctx context.Context, title string) (string, error) {
	if err := o.acquirePermit(ctx); err != nil {
		return "", err
	}
	defer o.releasePermit()
	return o.fetcher.Raw(ctx, title)
}

// fetchOne fetches a single page under a permit and routes the result:
// content to the sink, the outcome to the crawl state. The returned
// error is fatal (cancellation or sink failure).
func (o *Orchestrator) fetchOne(ctx context.Context, title, parent string) (model.ErrorKind, error) {
	if err := o.acquirePermit(ctx); err != nil {
		return model.ErrorKindNone, err
	}

	result := o.fetcher.Fetch(ctx, title)

	o.releasePermit()

	if !result.Success {
		o.state.MarkFailed(title, result.Err)
		o.logger.Debug("fetch failed", "title", title, "kind", result.Err.String())
		return result.Err, nil
	}

	record := model.ContentRecord{
		Title:       title,
		Parent:      parent,
		SourceURL:   o.fetcher.PageURL(title),
		RetrievedAt: time.Now(),
		Text:        result.Content,
	}
	if err := o.sink.Store(ctx, record); err != nil {
		return model.ErrorKindNone, fmt.Errorf("sink rejected %q: %w", title, err)
	}

	o.state.MarkCompleted(title)
	o.logger.Debug("fetched", "title", title, "bytes", result.ByteLength, "parent", parent)
	return model.ErrorKindNone, nil
}

// record folds an outcome into the summary under the lock.
func (o *Orchestrator) record(summary *Summary, outcome WorkOutcome, chapterFailures map[model.ErrorKind]int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	summary.record(outcome, chapterFailures)
}

// splitRequests separates critical works (processed in request order)
// from batched ones (sorted by priority, stable within a class).
func splitRequests(requests []model.WorkRequest) (critical, batched []model.WorkRequest) {
	for _, req := range requests {
		if req.Priority == model.PriorityCritical {
			critical = append(critical, req)
		} else {
			batched = append(batched, req)
		}
	}
	sort.SliceStable(batched, func(i, j int) bool {
		return batched[i].Priority > batched[j].Priority
	})
	return critical, batched
}

// chunk splits requests into fixed-size batches, the last one short.
func chunk(requests []model.WorkRequest, size int) [][]model.WorkRequest {
	if size <= 0 {
		size = 1
	}
	var batches [][]model.WorkRequest
	for start := 0; start < len(requests); start += size {
		end := min(start+size, len(requests))
		batches = append(batches, requests[start:end])
	}
	return batches
}

// dominantKind picks the most frequent failure kind, ties broken by
// enum order for determinism.
func dominantKind(failures map[model.ErrorKind]int) model.ErrorKind {
	best, bestN := model.ErrorKindNetwork, 0
	for kind, n := range failures {
		if n > bestN || (n == bestN && kind < best) {
			best, bestN = kind, n
		}
	}
	return best
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
