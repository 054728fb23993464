package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/filegrab/filegrab/internal/model"
)

// MarkdownWriter outputs statuses in GitHub-flavored Markdown, for
// documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the status in Markdown format.
func (w *MarkdownWriter) Write(status *Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, status)
	w.writeSummary(md, status)
	w.writeRecords(md, status)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with snapshot information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, status *Status) {
	md.H1("filegrab Status")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Database", "`" + status.Database + "`"},
			{"Generated", status.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Tracked URLs", strconv.Itoa(status.Summary.Total)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the aggregate counts with a distribution chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, status *Status) {
	md.H2("Summary")
	md.PlainText("")

	s := status.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"✅ Downloaded", strconv.Itoa(s.Downloaded)},
			{"⏭️ Skipped", strconv.Itoa(s.Skipped)},
			{"❌ Failed", strconv.Itoa(s.Failed)},
			{"⏳ Pending", strconv.Itoa(s.Pending)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, status)
	}

	w.writeAlert(md, status)
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, status *Status) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Tracked URL Status Distribution"),
		piechart.WithShowData(true),
	)

	s := status.Summary
	if s.Downloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(s.Downloaded))
	}
	if s.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(s.Skipped))
	}
	if s.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.Failed))
	}
	if s.Pending > 0 {
		chart.LabelAndIntValue("Pending", uint64(s.Pending))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert reflecting the overall crawl health.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, status *Status) {
	s := status.Summary
	switch {
	case s.Failed > 0:
		md.Warningf("%d download(s) failed and will be retried on the next run.", s.Failed)
	case s.Pending > 0:
		md.Importantf("%d download(s) were interrupted and will be retried on the next run.", s.Pending)
	case s.Total == 0:
		md.Note("No URLs tracked yet. Run `filegrab crawl` to populate the database.")
	default:
		md.Tip("All tracked URLs are in a settled state.")
	}
	md.PlainText("")
}

// writeRecords writes the recent activity table.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, status *Status) {
	md.H2("Recent Activity")
	md.PlainText("")

	if len(status.Records) == 0 {
		md.PlainText("No tracked URLs.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(status.Records))
	for _, rec := range status.Records {
		rows = append(rows, []string{
			"`" + rec.URL + "`",
			statusBadge(rec.Status),
			orDash(rec.Filename),
			formatTimestamp(rec.LastChecked),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Filename", "Last Checked"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusBadge renders a record status with an emoji marker.
func statusBadge(status model.Status) string {
	switch status {
	case model.StatusDownloaded:
		return "✅ downloaded"
	case model.StatusSkipped:
		return "⏭️ skipped"
	case model.StatusFailed:
		return "❌ failed"
	case model.StatusPending:
		return "⏳ pending"
	default:
		return string(status)
	}
}
