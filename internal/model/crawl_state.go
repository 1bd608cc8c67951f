package model

import (
	"fmt"
	"sort"
	"sync"
)

// CrawlState tracks which titles have been completed, failed, and
// discovered. It is the record that makes harvest runs resumable: the
// orchestrator skips completed titles, and the database package persists
// the state at batch boundaries.
//
// Invariant: a title is never both completed and failed. MarkCompleted
// removes the title from the failed set, and MarkFailed refuses to demote
// a completed title. Validate checks the invariant explicitly; a violation
// means the state store is corrupt and the run must abort.
type CrawlState struct {
	mu         sync.RWMutex
	completed  map[string]struct{}
	failed     map[string]ErrorKind
	discovered map[string]struct{}
}

// NewCrawlState returns an empty CrawlState.
func NewCrawlState() *CrawlState {
	return &CrawlState{
		completed:  make(map[string]struct{}),
		failed:     make(map[string]ErrorKind),
		discovered: make(map[string]struct{}),
	}
}

// MarkDiscovered records that a title has been seen by the orchestrator.
// Discovered is a superset of completed and failed.
func (s *CrawlState) MarkDiscovered(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovered[title] = struct{}{}
}

// MarkCompleted records a successful harvest. If the title previously
// failed, the failure is erased: the invariant is that completed and
// failed are disjoint, and success supersedes an old failure.
func (s *CrawlState) MarkCompleted(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovered[title] = struct{}{}
	s.completed[title] = struct{}{}
	delete(s.failed, title)
}

// MarkFailed records a failure with its kind. A title that has already
// completed stays completed; content we harvested once is not forgotten
// because a later refresh attempt failed.
func (s *CrawlState) MarkFailed(title string, kind ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovered[title] = struct{}{}
	if _, ok := s.completed[title]; ok {
		return
	}
	s.failed[title] = kind
}

// IsCompleted reports whether the title has been successfully harvested.
func (s *CrawlState) IsCompleted(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completed[title]
	return ok
}

// FailureKind returns the recorded failure kind for a title and whether
// the title is in the failed set.
func (s *CrawlState) FailureKind(title string) (ErrorKind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kind, ok := s.failed[title]
	return kind, ok
}

// CompletedTitles returns the completed set sorted for stable persistence.
func (s *CrawlState) CompletedTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.completed))
	for t := range s.completed {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// FailedTitles returns a copy of the failed set with each title's kind.
func (s *CrawlState) FailedTitles() map[string]ErrorKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ErrorKind, len(s.failed))
	for t, k := range s.failed {
		out[t] = k
	}
	return out
}

// DiscoveredTitles returns the discovered set sorted for stable persistence.
func (s *CrawlState) DiscoveredTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.discovered))
	for t := range s.discovered {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// Counts returns the completed, failed, and discovered set sizes.
func (s *CrawlState) Counts() (completed, failed, discovered int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.completed), len(s.failed), len(s.discovered)
}

// Validate checks the disjointness invariant between the completed and
// failed sets. A violation is fatal to the run: it means two writers
// disagreed about a title's outcome or the state store is corrupt.
func (s *CrawlState) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for t := range s.completed {
		if _, ok := s.failed[t]; ok {
			return fmt.Errorf("crawl state corrupt: %q is both completed and failed", t)
		}
	}
	return nil
}
