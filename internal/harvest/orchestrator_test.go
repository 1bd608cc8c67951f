package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/willowgs/viciharvest/internal/classify"
	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/model"
	"github.com/willowgs/viciharvest/internal/resolve"
	"github.com/willowgs/viciharvest/internal/wiki"
)

// fakeFetcher is a scriptable ContentFetcher.
type fakeFetcher struct {
	mu sync.Mutex

	// raws maps titles to markup; missing titles report page-not-found.
	raws map[string]string

	// failKinds forces a fetch failure for a title.
	failKinds map[string]model.ErrorKind

	// flaky counts down forced network failures before success.
	flaky map[string]int

	// fetchCalls counts Fetch invocations per title.
	fetchCalls map[string]int

	// delay slows each network call, for concurrency observation.
	delay time.Duration

	// netInFlight/netPeak track concurrent network calls, Raw and
	// Fetch combined.
	netInFlight int
	netPeak     int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		raws:       make(map[string]string),
		failKinds:  make(map[string]model.ErrorKind),
		flaky:      make(map[string]int),
		fetchCalls: make(map[string]int),
	}
}

// begin marks a network call in flight; end releases it.
func (f *fakeFetcher) begin() {
	f.mu.Lock()
	f.netInFlight++
	if f.netInFlight > f.netPeak {
		f.netPeak = f.netInFlight
	}
	f.mu.Unlock()
}

func (f *fakeFetcher) end() {
	f.mu.Lock()
	f.netInFlight--
	f.mu.Unlock()
}

func (f *fakeFetcher) peakNetworkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.netPeak
}

func (f *fakeFetcher) Fetch(_ context.Context, title string) model.FetchResult {
	f.begin()
	defer f.end()

	f.mu.Lock()
	f.fetchCalls[title]++
	remaining := f.flaky[title]
	if remaining > 0 {
		f.flaky[title]--
	}
	kind, forced := f.failKinds[title]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if remaining > 0 {
		return model.FetchResult{Title: title, Err: model.ErrorKindNetwork, Attempts: 1}
	}
	if forced {
		return model.FetchResult{Title: title, Err: kind, Attempts: 1}
	}

	content := "Harvested text of " + title + ". " + strings.Repeat("verba ", 20)
	return model.FetchResult{
		Title:      title,
		Success:    true,
		Content:    content,
		ByteLength: len(content),
		Attempts:   1,
	}
}

func (f *fakeFetcher) Raw(_ context.Context, title string) (string, error) {
	f.begin()
	defer f.end()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.raws[title]
	if !ok {
		return "", wiki.ErrPageNotFound
	}
	return raw, nil
}

func (f *fakeFetcher) PageURL(title string) string {
	return "https://la.wikisource.org/wiki/" + title
}

func (f *fakeFetcher) calls(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls[title]
}

// collectSink records every stored ContentRecord.
type collectSink struct {
	mu      sync.Mutex
	records []model.ContentRecord
	fail    bool
}

func (c *collectSink) Store(_ context.Context, record model.ContentRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("disk full")
	}
	c.records = append(c.records, record)
	return nil
}

func (c *collectSink) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// countingStore counts SaveState checkpoints.
type countingStore struct {
	mu    sync.Mutex
	saves int
}

func (c *countingStore) SaveState(context.Context, *model.CrawlState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	return nil
}

// prose is long enough that the classifier always calls it a leaf.
var prose = strings.Repeat("saepe numero admirari soleo cum hoc gaio laelio ", 100)

// tocMarkup builds an index page with n chapter links for a work.
func tocMarkup(work string, n int) string {
	var b strings.Builder
	b.WriteString("{{Scriptor|Auctor}}\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "* [[%s/Liber %d]]\n", work, i)
	}
	return b.String()
}

// newTestOrchestrator wires an orchestrator with fast test settings.
func newTestOrchestrator(t *testing.T, fetcher ContentFetcher, sink Sink, opts ...Option) *Orchestrator {
	t.Helper()
	curated := config.NewCurated()
	base := []Option{
		WithBatchPause(0),
		WithCriticalPolicy(RetryPolicy{MaxAttempts: 3}),
	}
	return NewOrchestrator(
		fetcher,
		classify.NewClassifier(curated),
		resolve.NewResolver(curated),
		sink,
		append(base, opts...)...,
	)
}

func TestRunLeafWork(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Cato Maior de Senectute"] = prose
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{
		{Title: "Cato Maior de Senectute"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Completed != 1 || summary.Failed != 0 {
		t.Errorf("summary = %d completed, %d failed; want 1, 0", summary.Completed, summary.Failed)
	}
	if sink.len() != 1 {
		t.Fatalf("sink got %d records, want 1", sink.len())
	}
	record := sink.records[0]
	if record.Parent != "" {
		t.Errorf("leaf record Parent = %q, want empty", record.Parent)
	}
	if record.SourceURL == "" || record.RetrievedAt.IsZero() {
		t.Error("record must carry source URL and retrieval time")
	}
}

func TestRunIndexFanOut(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Aeneis"] = "irrelevant: the curated table decides"
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{{Title: "Aeneis"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.ChaptersFound != 12 {
		t.Errorf("ChaptersFound = %d, want 12", summary.ChaptersFound)
	}
	if sink.len() != 12 {
		t.Errorf("sink got %d records, want 12", sink.len())
	}
	for _, record := range sink.records {
		if record.Parent != "Aeneis" {
			t.Errorf("chapter record Parent = %q, want Aeneis", record.Parent)
		}
	}
	if len(summary.Outcomes) != 1 || !summary.Outcomes[0].Completed {
		t.Error("parent work must complete when chapters succeed")
	}
}

func TestRunCriticalRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Pretiosum"] = prose
	fetcher.flaky["Opus Pretiosum"] = 2 // fail twice, succeed on the third
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{
		{Title: "Opus Pretiosum", Priority: model.PriorityCritical},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outcome := summary.Outcomes[0]
	if !outcome.Completed {
		t.Errorf("outcome = %+v, want completed", outcome)
	}
	if outcome.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", outcome.Attempts)
	}
	if got := fetcher.calls("Opus Pretiosum"); got != 3 {
		t.Errorf("fetch calls = %d, want 3", got)
	}
}

func TestRunCriticalExhaustsRetries(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Fragile"] = prose
	fetcher.flaky["Opus Fragile"] = 10 // more failures than the budget
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{
		{Title: "Opus Fragile", Priority: model.PriorityCritical},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outcome := summary.Outcomes[0]
	if outcome.Completed {
		t.Fatal("work must fail after exhausting retries")
	}
	if outcome.Kind != model.ErrorKindMaxRetries {
		t.Errorf("Kind = %v, want max_retries_exceeded", outcome.Kind)
	}
	if outcome.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", outcome.Attempts)
	}
}

func TestRunNonCriticalSingleAttempt(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Caducum"] = prose
	fetcher.flaky["Opus Caducum"] = 1
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{
		{Title: "Opus Caducum", Priority: model.PriorityHigh},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outcome := summary.Outcomes[0]
	if outcome.Completed {
		t.Fatal("a single-attempt work must not retry into success")
	}
	if outcome.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", outcome.Attempts)
	}
	if outcome.Kind != model.ErrorKindNetwork {
		t.Errorf("Kind = %v, want network_failure", outcome.Kind)
	}
}

func TestRunMissingPage(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher() // no raws: everything is 404
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{
		{Title: "Opus Deletum", Priority: model.PriorityCritical},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outcome := summary.Outcomes[0]
	if outcome.Kind != model.ErrorKindNotFound {
		t.Errorf("Kind = %v, want not_found", outcome.Kind)
	}
	if outcome.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (not found is permanent)", outcome.Attempts)
	}
}

func TestRunUnresolvedIndex(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Obscurum"] = "Prose with no chapter links whatsoever."
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	// The hint forces the index decision, but nothing resolves.
	summary, err := o.Run(context.Background(), []model.WorkRequest{
		{Title: "Opus Obscurum", IndexHint: true},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outcome := summary.Outcomes[0]
	if outcome.Completed {
		t.Fatal("an unresolvable index must fail")
	}
	if outcome.Kind != model.ErrorKindUnresolvedIndex {
		t.Errorf("Kind = %v, want unresolved_index", outcome.Kind)
	}
}

func TestRunParentCompletesOnPartialFanOut(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Mixtum"] = tocMarkup("Opus Mixtum", 3)
	fetcher.failKinds["Opus Mixtum/Liber 2"] = model.ErrorKindTooShort
	fetcher.failKinds["Opus Mixtum/Liber 3"] = model.ErrorKindNotFound
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{{Title: "Opus Mixtum"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outcome := summary.Outcomes[0]
	if !outcome.Completed {
		t.Error("parent must complete when at least one chapter succeeds")
	}
	if outcome.ChaptersFetched != 1 {
		t.Errorf("ChaptersFetched = %d, want 1", outcome.ChaptersFetched)
	}
	if summary.Failures["too_short"] != 1 || summary.Failures["not_found"] != 1 {
		t.Errorf("Failures = %v, want one too_short and one not_found", summary.Failures)
	}
}

func TestRunParentFailsWhenAllChaptersFail(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Perditum"] = tocMarkup("Opus Perditum", 2)
	fetcher.failKinds["Opus Perditum/Liber 1"] = model.ErrorKindNotFound
	fetcher.failKinds["Opus Perditum/Liber 2"] = model.ErrorKindNotFound
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink)

	summary, err := o.Run(context.Background(), []model.WorkRequest{{Title: "Opus Perditum"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outcome := summary.Outcomes[0]
	if outcome.Completed {
		t.Fatal("parent must fail when every chapter fails")
	}
	if outcome.Kind != model.ErrorKindNotFound {
		t.Errorf("Kind = %v, want the dominant chapter kind not_found", outcome.Kind)
	}
}

func TestRunSkipsCompletedWork(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Georgica"] = prose
	sink := &collectSink{}

	state := model.NewCrawlState()
	state.MarkCompleted("Georgica")
	o := newTestOrchestrator(t, fetcher, sink, WithState(state))

	summary, err := o.Run(context.Background(), []model.WorkRequest{{Title: "Georgica"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if got := fetcher.calls("Georgica"); got != 0 {
		t.Errorf("fetch calls = %d, want 0 for a completed title", got)
	}
}

func TestRunForceRefreshRefetches(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Georgica"] = prose
	sink := &collectSink{}

	state := model.NewCrawlState()
	state.MarkCompleted("Georgica")
	o := newTestOrchestrator(t, fetcher, sink, WithState(state), WithForceRefresh(true))

	summary, err := o.Run(context.Background(), []model.WorkRequest{{Title: "Georgica"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Skipped != 0 || summary.Completed != 1 {
		t.Errorf("summary = %d skipped, %d completed; want 0, 1", summary.Skipped, summary.Completed)
	}
	if got := fetcher.calls("Georgica"); got != 1 {
		t.Errorf("fetch calls = %d, want 1 with force refresh", got)
	}
}

func TestRunPermitPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.delay = 5 * time.Millisecond
	// Index works fanning out alongside leaf works in the same batch
	// could oversubscribe without the shared permit pool, and the
	// classification raws of the leaf works hit the network too.
	fetcher.raws["Opus Primum"] = tocMarkup("Opus Primum", 15)
	fetcher.raws["Opus Secundum"] = tocMarkup("Opus Secundum", 15)
	leaves := []string{"Opus Tertium", "Opus Quartum", "Opus Quintum", "Opus Sextum"}
	for _, leaf := range leaves {
		fetcher.raws[leaf] = prose
	}
	sink := &collectSink{}
	o := newTestOrchestrator(t, fetcher, sink, WithConcurrency(4), WithBatchSize(10))

	requests := []model.WorkRequest{
		{Title: "Opus Primum"},
		{Title: "Opus Secundum"},
	}
	for _, leaf := range leaves {
		requests = append(requests, model.WorkRequest{Title: leaf})
	}

	_, err := o.Run(context.Background(), requests)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if peak := o.PeakInFlight(); peak > 4 {
		t.Errorf("PeakInFlight = %d, want <= 4", peak)
	}
	if peak := fetcher.peakNetworkCalls(); peak > 4 {
		t.Errorf("peak concurrent network calls = %d, want <= 4", peak)
	}
	if sink.len() != 34 {
		t.Errorf("sink got %d records, want 34 (30 chapters + 4 leaves)", sink.len())
	}
}

func TestRunCheckpointsAtBatchBoundaries(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus A"] = prose
	fetcher.raws["Opus B"] = prose
	fetcher.raws["Opus C"] = prose
	store := &countingStore{}
	o := newTestOrchestrator(t, fetcher, &collectSink{},
		WithBatchSize(1),
		WithStateStore(store),
	)

	_, err := o.Run(context.Background(), []model.WorkRequest{
		{Title: "Opus A"}, {Title: "Opus B"}, {Title: "Opus C"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.saves != 3 {
		t.Errorf("SaveState called %d times, want 3 (one per batch)", store.saves)
	}
}

func TestRunSinkFailureAborts(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Damnatum"] = prose
	sink := &collectSink{fail: true}
	o := newTestOrchestrator(t, fetcher, sink)

	_, err := o.Run(context.Background(), []model.WorkRequest{{Title: "Opus Damnatum"}})
	if err == nil {
		t.Fatal("a sink failure must abort the run")
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.raws["Opus Tardum"] = prose
	o := newTestOrchestrator(t, fetcher, &collectSink{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Run(ctx, []model.WorkRequest{
		{Title: "Opus Tardum", Priority: model.PriorityCritical},
	}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestSplitRequests(t *testing.T) {
	t.Parallel()

	requests := []model.WorkRequest{
		{Title: "normal", Priority: model.PriorityNormal},
		{Title: "critical-1", Priority: model.PriorityCritical},
		{Title: "high", Priority: model.PriorityHigh},
		{Title: "critical-2", Priority: model.PriorityCritical},
		{Title: "medium", Priority: model.PriorityMedium},
	}

	critical, batched := splitRequests(requests)

	if len(critical) != 2 || critical[0].Title != "critical-1" || critical[1].Title != "critical-2" {
		t.Errorf("critical = %v, want critical-1 then critical-2", critical)
	}
	wantOrder := []string{"high", "medium", "normal"}
	for i, want := range wantOrder {
		if batched[i].Title != want {
			t.Errorf("batched[%d] = %q, want %q", i, batched[i].Title, want)
		}
	}
}

func TestChunk(t *testing.T) {
	t.Parallel()

	requests := make([]model.WorkRequest, 7)
	batches := chunk(requests, 3)

	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[0]) != 3 || len(batches[1]) != 3 || len(batches[2]) != 1 {
		t.Errorf("batch sizes = %d, %d, %d; want 3, 3, 1",
			len(batches[0]), len(batches[1]), len(batches[2]))
	}
}
