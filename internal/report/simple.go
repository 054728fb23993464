package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/filegrab/filegrab/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII, no ANSI colors, so output pipes cleanly to files and
// other tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds the stored validators to each record line.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with validator details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the status in human-readable format.
func (w *SimpleWriter) Write(status *Status) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, status)
	w.writeSummary(&sb, status)
	w.writeRecords(&sb, status)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, status *Status) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         FILEGRAB STATUS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Database:  %s\n", status.Database))
	sb.WriteString(fmt.Sprintf("Generated: %s\n", status.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")
}

// writeSummary writes the aggregate counts section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, status *Status) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	s := status.Summary
	sb.WriteString(fmt.Sprintf("  DOWNLOADED: %d\n", s.Downloaded))
	sb.WriteString(fmt.Sprintf("  SKIPPED:    %d\n", s.Skipped))
	sb.WriteString(fmt.Sprintf("  FAILED:     %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("  PENDING:    %d\n", s.Pending))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:      %d tracked URLs\n", s.Total))
	sb.WriteString("\n")
}

// writeRecords writes the recent activity section.
func (w *SimpleWriter) writeRecords(sb *strings.Builder, status *Status) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECENT ACTIVITY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(status.Records) == 0 {
		sb.WriteString("  No tracked URLs\n\n")
		return
	}

	for _, rec := range status.Records {
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", statusIndicator(rec.Status), rec.URL))
		if rec.LocalPath != "" {
			sb.WriteString(fmt.Sprintf("      Path: %s\n", rec.LocalPath))
		}
		sb.WriteString(fmt.Sprintf("      Checked: %s  Downloaded: %s\n",
			formatTimestamp(rec.LastChecked), formatTimestamp(rec.LastDownloaded)))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      ETag: %s  Last-Modified: %s\n",
				orDash(rec.ETag), orDash(rec.LastModified)))
		}
	}
	sb.WriteString("\n")
}

// statusIndicator returns a short visual marker for a record status.
func statusIndicator(status model.Status) string {
	switch status {
	case model.StatusDownloaded:
		return "+"
	case model.StatusSkipped:
		return "="
	case model.StatusFailed:
		return "!"
	case model.StatusPending:
		return "~"
	default:
		return "?"
	}
}

// formatTimestamp renders a timestamp, or "-" when it was never set.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// orDash substitutes "-" for the empty string.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
