// Package database provides SQLite-backed persistence for the harvester:
// the crawl state that makes runs resumable and the TTL cache of raw
// page markup that makes repeat runs cheap.
//
// Design decision: A single database file holds both tables. The state
// and the cache are always read and written together in a run, and one
// file keeps backup and cleanup trivial. modernc.org/sqlite is a pure-Go
// driver, so the binary stays cgo-free.
package database
