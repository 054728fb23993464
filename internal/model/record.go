package model

import "time"

// Status describes where a tracked URL sits in its download lifecycle.
//
// The lifecycle is: absent -> pending -> {downloaded, failed}. A downloaded
// record either stays downloaded (re-confirmed by a probe) or reopens to
// pending when a re-fetch is triggered. Any state can move to skipped when
// the freshness engine declines to fetch. No state is permanently terminal;
// every URL is re-evaluated on each run.
type Status string

// Valid status values for a file record.
const (
	// StatusPending marks a record whose transfer started but was never
	// confirmed. A crash mid-download leaves this behind, which forces a
	// retry on the next run.
	StatusPending Status = "pending"

	// StatusDownloaded marks a record whose content was fully written to
	// disk, or confirmed already present at the destination path.
	StatusDownloaded Status = "downloaded"

	// StatusFailed marks a record whose last transfer attempt errored.
	StatusFailed Status = "failed"

	// StatusSkipped marks a record the freshness engine declined to fetch.
	StatusSkipped Status = "skipped"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDownloaded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// String returns the status as a plain string.
func (s Status) String() string {
	return string(s)
}

// Record is the durable per-URL metadata row tracked across runs.
// The URL is the only identity key; a record is never duplicated and
// never deleted by the crawler itself.
//
// Updates are merge-by-presence: a writer supplies only the fields it
// knows, and absent fields keep their stored values. See store.Fields.
type Record struct {
	// URL is the absolute, fragment-stripped URL of the file.
	URL string

	// Filename is the derived local file name. It may be synthesized when
	// the URL path has no terminal segment.
	Filename string

	// LocalPath is the filesystem destination, set once the file is known
	// to exist or has been fetched.
	LocalPath string

	// Status is the current lifecycle state.
	Status Status

	// ETag is the last server-supplied entity tag that confirmed content
	// identity, from whichever response (HEAD or GET) saw it most recently.
	ETag string

	// LastModified is the last server-supplied Last-Modified header value,
	// stored verbatim for exact comparison against future probes.
	LastModified string

	// LastChecked is the time of the most recent freshness evaluation,
	// whether a probe or a confirmed fetch.
	LastChecked time.Time

	// LastDownloaded is the time of the most recent successful content
	// write.
	LastDownloaded time.Time
}

// Downloaded reports whether the record claims its content is present on
// disk. Everything else (pending, failed, skipped) counts as "not confirmed
// present" and forces a retry on the next evaluation.
func (r *Record) Downloaded() bool {
	return r.Status == StatusDownloaded
}
