package report

import (
	"io"
	"time"

	"github.com/filegrab/filegrab/internal/model"
	"github.com/filegrab/filegrab/internal/store"
)

// Status is a point-in-time snapshot of the crawl state, assembled from
// the store's aggregate counts and its most recently checked records.
type Status struct {
	// Database is the path of the state database the snapshot came from.
	Database string

	// GeneratedAt is when the snapshot was taken.
	GeneratedAt time.Time

	// Summary holds aggregate counts by status.
	Summary *store.Summary

	// Records are the most recently checked records, newest first.
	Records []*model.Record
}

// Writer renders a Status to some destination. Implementations write in
// different formats; the interface lets callers pick format and
// destination independently.
type Writer interface {
	// Write renders the status. Returns the number of bytes written and
	// any error encountered.
	Write(status *Status) (int, error)
}

// MultiWriter writes to multiple Writers, for outputting to both
// terminal and file. A separate type rather than io.MultiWriter because
// our Writer renders statuses, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the status to all configured Writers. Returns the total
// bytes written; stops on the first error.
func (m *MultiWriter) Write(status *Status) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(status)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
