package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/willowgs/viciharvest/internal/harvest"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables the per-work outcome listing.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the per-work outcome listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *harvest.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeTotals(&sb, summary)
	w.writeFailures(&sb, summary)
	w.writeOutcomes(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *harvest.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        VICIHARVEST REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Works Processed: %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("Elapsed:         %s\n", summary.Elapsed.Round(timeRounding)))
	sb.WriteString("\n")
}

// writeTotals writes the outcome totals section.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, summary *harvest.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTCOME TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  COMPLETED: %d\n", summary.Completed))
	sb.WriteString(fmt.Sprintf("  FAILED:    %d\n", summary.Failed))
	sb.WriteString(fmt.Sprintf("  SKIPPED:   %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("  CHAPTERS:  %d\n", summary.ChaptersFound))
	sb.WriteString("\n")
}

// writeFailures writes the per-kind failure tally.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, summary *harvest.Summary) {
	if len(summary.Failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES BY KIND\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.Failures) == 0 {
		sb.WriteString("  No failures\n")
	} else {
		for _, kind := range sortedKinds(summary.Failures) {
			sb.WriteString(fmt.Sprintf("  [%s] %d\n", kind, summary.Failures[kind]))
		}
	}
	sb.WriteString("\n")
}

// writeOutcomes writes the per-work outcome listing. Failed works are
// always listed; the full listing needs verbose mode.
func (w *SimpleWriter) writeOutcomes(sb *strings.Builder, summary *harvest.Summary) {
	if len(summary.Outcomes) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("WORKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, outcome := range summary.Outcomes {
		if !w.verbose && outcome.Completed {
			continue
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", outcomeIndicator(outcome), outcome.Title))
		if outcome.Error != "" {
			sb.WriteString(fmt.Sprintf("    Error: %s\n", outcome.Error))
		}
		if w.verbose {
			sb.WriteString(fmt.Sprintf("    Priority: %s\n", outcome.PriorityName))
			sb.WriteString(fmt.Sprintf("    Attempts: %d\n", outcome.Attempts))
			if outcome.ChaptersFetched > 0 {
				sb.WriteString(fmt.Sprintf("    Chapters: %d\n", outcome.ChaptersFetched))
			}
		}
	}
	sb.WriteString("\n")
}

// outcomeIndicator returns a visual indicator for a work outcome.
func outcomeIndicator(outcome harvest.WorkOutcome) string {
	switch {
	case outcome.Skipped:
		return "="
	case outcome.Completed:
		return "+"
	default:
		return "!"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by viciharvest\n")
	sb.WriteString("https://github.com/willowgs/viciharvest\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// sortedKinds returns the failure kinds in alphabetical order so the
// tally is stable across runs.
func sortedKinds(failures map[string]int) []string {
	kinds := make([]string, 0, len(failures))
	for kind := range failures {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
