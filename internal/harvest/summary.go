package harvest

import (
	"time"

	"github.com/willowgs/viciharvest/internal/model"
)

// WorkOutcome is the final result for one requested work.
type WorkOutcome struct {
	// Title is the requested work title.
	Title string `json:"title"`

	// Priority is the request's priority class.
	Priority model.Priority `json:"-"`

	// PriorityName is the priority as a string, for serialized output.
	PriorityName string `json:"priority"`

	// Completed is true when the work (or at least one of its chapters)
	// was harvested.
	Completed bool `json:"completed"`

	// Skipped is true when the work was already completed in a previous
	// run and force-refresh was off.
	Skipped bool `json:"skipped"`

	// Kind is the failure kind for failed works, ErrorKindNone otherwise.
	Kind model.ErrorKind `json:"-"`

	// Error is the failure kind as a string, for serialized output.
	Error string `json:"error,omitempty"`

	// Attempts is how many attempts the work took.
	Attempts int `json:"attempts"`

	// ChaptersFetched is how many chapter pages were fetched for an
	// index work in this run.
	ChaptersFetched int `json:"chapters_fetched,omitempty"`
}

// Summary aggregates a harvest run.
type Summary struct {
	// Processed is the number of requested works handled, including
	// skips.
	Processed int `json:"processed"`

	// Completed is the number of works that ended completed.
	Completed int `json:"completed"`

	// Failed is the number of works that ended failed.
	Failed int `json:"failed"`

	// Skipped is the number of works skipped as already completed.
	Skipped int `json:"skipped"`

	// ChaptersFound is the total number of chapter pages fetched
	// successfully across all index works.
	ChaptersFound int `json:"chapters_found"`

	// Failures counts failed titles per error kind, chapters included.
	Failures map[string]int `json:"failures,omitempty"`

	// Outcomes lists the per-work results in processing order.
	Outcomes []WorkOutcome `json:"outcomes"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// newSummary returns an empty Summary ready for accumulation.
func newSummary() *Summary {
	return &Summary{Failures: make(map[string]int)}
}

// record folds one work outcome into the totals. Callers synchronize.
func (s *Summary) record(outcome WorkOutcome, chapterFailures map[model.ErrorKind]int) {
	outcome.PriorityName = outcome.Priority.String()
	if outcome.Kind != model.ErrorKindNone {
		outcome.Error = outcome.Kind.String()
	}

	s.Processed++
	switch {
	case outcome.Skipped:
		s.Skipped++
	case outcome.Completed:
		s.Completed++
	default:
		s.Failed++
		s.Failures[outcome.Kind.String()]++
	}
	s.ChaptersFound += outcome.ChaptersFetched
	for kind, n := range chapterFailures {
		s.Failures[kind.String()] += n
	}
	s.Outcomes = append(s.Outcomes, outcome)
}
