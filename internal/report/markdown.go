package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/willowgs/viciharvest/internal/harvest"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *harvest.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeTotals(md, summary)
	w.writeOutcomes(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *harvest.Summary) {
	md.H1("Harvest Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Works Processed", strconv.Itoa(summary.Processed)},
			{"Chapters Fetched", strconv.Itoa(summary.ChaptersFound)},
			{"Elapsed", summary.Elapsed.Round(timeRounding).String()},
		},
	})
	md.PlainText("")
}

// writeTotals writes the outcome totals with a distribution chart.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, summary *harvest.Summary) {
	md.H2("Outcome Totals")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Completed", strconv.Itoa(summary.Completed)},
			{"❌ Failed", strconv.Itoa(summary.Failed)},
			{"⏭️ Skipped", strconv.Itoa(summary.Skipped)},
			{"**Total**", "**" + strconv.Itoa(summary.Processed) + "**"},
		},
	})
	md.PlainText("")

	if len(summary.Failures) > 0 {
		w.writeFailureChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writeFailureChart writes a mermaid pie chart of failures by kind.
func (w *MarkdownWriter) writeFailureChart(md *markdown.Markdown, summary *harvest.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Failures by Kind"),
		piechart.WithShowData(true),
	)

	for _, kind := range sortedKinds(summary.Failures) {
		chart.LabelAndIntValue(kind, uint64(summary.Failures[kind]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *harvest.Summary) {
	switch {
	case summary.Completed == 0 && summary.Failed > 0:
		md.Cautionf("Every work failed. %d failure(s); check connectivity and the work list.", summary.Failed)
	case summary.Failed > 0:
		md.Warningf("%d work(s) failed and may need attention.", summary.Failed)
	case summary.Skipped == summary.Processed && summary.Processed > 0:
		md.Note("Every work was already harvested; nothing new was fetched.")
	default:
		md.Tip("All requested works were harvested successfully.")
	}
	md.PlainText("")
}

// writeOutcomes writes the per-work outcome table.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, summary *harvest.Summary) {
	md.H2("Works")
	md.PlainText("")

	if len(summary.Outcomes) == 0 {
		md.PlainText("No works were requested.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Outcomes))
	for i, outcome := range summary.Outcomes {
		status := "completed"
		switch {
		case outcome.Skipped:
			status = "skipped"
		case !outcome.Completed:
			status = "failed"
		}
		errText := outcome.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			outcome.Title,
			outcome.PriorityName,
			status,
			strconv.Itoa(outcome.Attempts),
			strconv.Itoa(outcome.ChaptersFetched),
			errText,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Work", "Priority", "Status", "Attempts", "Chapters", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [viciharvest](https://github.com/willowgs/viciharvest)*")
}
