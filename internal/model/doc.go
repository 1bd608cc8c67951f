// Package model defines the core data types shared across the harvester.
//
// The types fall into four groups:
//   - Work intake: WorkRequest and Priority describe what to harvest and
//     how aggressively to retry it.
//   - Analysis results: ClassificationResult (index vs leaf decision) and
//     ChapterSet (ordered chapter list with its provenance).
//   - Fetch outcomes: FetchResult with its typed ErrorKind taxonomy and
//     the ContentRecord handed to downstream sinks.
//   - Crawl state: CrawlState, the resumable record of what has been
//     completed, failed, and discovered across runs.
//
// Design decision: These types live in a standalone package with no
// dependencies on the rest of the module so that every layer (classifier,
// resolver, fetcher, orchestrator, database) can exchange them without
// import cycles.
package model
