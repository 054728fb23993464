package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/filegrab/filegrab/internal/model"
)

// JSONWriter outputs statuses in JSON format, for tool integration and
// programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output. When false, output is
	// compact.
	indent bool

	// indentPrefix and indentString control the indented layout.
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output with the given prefix
// and per-level indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// A convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonStatus is the wire shape of a status snapshot. A separate struct
// so the output format stays stable even if the internal types change.
type jsonStatus struct {
	Database    string       `json:"database"`
	GeneratedAt time.Time    `json:"generated_at"`
	Summary     jsonSummary  `json:"summary"`
	Records     []jsonRecord `json:"records"`
}

type jsonSummary struct {
	Total      int `json:"total"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Pending    int `json:"pending"`
}

type jsonRecord struct {
	URL            string `json:"url"`
	Filename       string `json:"filename,omitempty"`
	LocalPath      string `json:"local_path,omitempty"`
	Status         string `json:"status"`
	ETag           string `json:"etag,omitempty"`
	LastModified   string `json:"last_modified,omitempty"`
	LastChecked    string `json:"last_checked,omitempty"`
	LastDownloaded string `json:"last_downloaded,omitempty"`
}

// Write outputs the status in JSON format.
func (w *JSONWriter) Write(status *Status) (int, error) {
	out := jsonStatus{
		Database:    status.Database,
		GeneratedAt: status.GeneratedAt,
		Summary: jsonSummary{
			Total:      status.Summary.Total,
			Downloaded: status.Summary.Downloaded,
			Skipped:    status.Summary.Skipped,
			Failed:     status.Summary.Failed,
			Pending:    status.Summary.Pending,
		},
		Records: make([]jsonRecord, 0, len(status.Records)),
	}
	for _, rec := range status.Records {
		out.Records = append(out.Records, toJSONRecord(rec))
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(out, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}

// toJSONRecord converts a record, rendering absent timestamps as absent
// fields rather than Go zero times.
func toJSONRecord(rec *model.Record) jsonRecord {
	out := jsonRecord{
		URL:          rec.URL,
		Filename:     rec.Filename,
		LocalPath:    rec.LocalPath,
		Status:       rec.Status.String(),
		ETag:         rec.ETag,
		LastModified: rec.LastModified,
	}
	if !rec.LastChecked.IsZero() {
		out.LastChecked = rec.LastChecked.Format(time.RFC3339)
	}
	if !rec.LastDownloaded.IsZero() {
		out.LastDownloaded = rec.LastDownloaded.Format(time.RFC3339)
	}
	return out
}
