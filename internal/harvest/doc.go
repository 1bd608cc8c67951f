// Package harvest orchestrates the crawl.
//
// A run moves each requested work through a fixed sequence: classify
// from raw markup, then either fetch the single leaf page or resolve the
// index into chapters and fan the fetches out. Every fetch in the whole
// run passes through one weighted-semaphore permit pool, so the wiki
// never sees more than the configured number of in-flight requests no
// matter how wide a fan-out gets.
//
// Scheduling is two-phase. Critical-priority works run first,
// sequentially, each with a retry budget and exponential backoff.
// Everything else runs in fixed-size batches with a pause between
// batches and bounded concurrency inside each; those works get exactly
// one attempt. Crawl state is validated and persisted at every batch
// boundary, which makes an interrupted run resumable: completed titles
// are skipped on the next run unless force-refresh is set.
package harvest
