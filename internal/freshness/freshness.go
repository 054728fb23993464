// Package freshness decides whether a tracked URL needs to be fetched.
//
// The engine reconciles the persisted record for a URL against live server
// metadata obtained through a HEAD probe. The outcome is a boolean plus a
// reason code, so operators can see exactly why a file was or was not
// re-fetched.
package freshness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/filegrab/filegrab/internal/model"
	"github.com/filegrab/filegrab/internal/store"
	"github.com/filegrab/filegrab/internal/webclient"
)

// Reason codes attached to every decision.
const (
	// ReasonForce: the operator bypassed the freshness check.
	ReasonForce = "force"

	// ReasonNoRecord: the URL has never been evaluated before.
	ReasonNoRecord = "no-record"

	// ReasonProbeFailed: the HEAD probe errored. We skip rather than
	// fetch, so a transient network issue is never mistaken for a content
	// change.
	ReasonProbeFailed = "probe-failed"

	// ReasonETagChanged: the server's ETag differs from the stored one.
	ReasonETagChanged = "etag-changed"

	// ReasonLastModifiedChanged: the server's Last-Modified differs from
	// the stored one.
	ReasonLastModifiedChanged = "last-modified-changed"

	// ReasonNoRemoteMetadata: the server exposes neither validator.
	// Absence of cache headers means "cannot prove change", not "assume
	// change", so we skip.
	ReasonNoRemoteMetadata = "no-remote-metadata"

	// ReasonNoChange: the server's validators match the stored ones.
	ReasonNoChange = "no-change"
)

// StatusReason renders the reason code for a record whose status is not
// downloaded. Pending, failed, and skipped all force a retry: none of them
// confirms the content is present on disk.
func StatusReason(status model.Status) string {
	return fmt.Sprintf("status=%s", status)
}

// Decision is the outcome of a freshness evaluation.
type Decision struct {
	// Fetch reports whether the URL should be (re-)downloaded.
	Fetch bool

	// Reason is the machine-readable reason code for the decision.
	Reason string
}

// Prober issues a metadata-only request for a URL. Satisfied by
// *webclient.Client.
type Prober interface {
	ProbeURL(ctx context.Context, url string) (*webclient.Probe, error)
}

// Engine evaluates URLs against the state store.
type Engine struct {
	// store holds the persisted per-URL records.
	store *store.Store

	// prober performs HEAD probes.
	prober Prober

	// logger receives decision diagnostics.
	logger *slog.Logger

	// readOnly suppresses the last_checked side effect. Set for dry
	// runs, which must leave the store untouched.
	readOnly bool

	// now supplies timestamps; injectable for tests.
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for decision diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithReadOnly suppresses the last_checked update that normally follows a
// successful probe. Dry runs use this to guarantee zero store mutations.
func WithReadOnly(readOnly bool) Option {
	return func(e *Engine) {
		e.readOnly = readOnly
	}
}

// NewEngine creates a freshness engine over the given store and prober.
func NewEngine(st *store.Store, prober Prober, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		prober: prober,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Decide determines whether url must be fetched. The precedence is fixed:
//
//  1. force always fetches.
//  2. No record fetches.
//  3. Any status other than downloaded fetches.
//  4. A downloaded record is verified with a HEAD probe:
//     probe failure skips (conservative); a changed ETag or Last-Modified
//     fetches; matching or absent validators skip.
//
// A successful probe updates the record's last_checked timestamp as a side
// effect of the decision, even when the decision is to skip.
func (e *Engine) Decide(ctx context.Context, url string, force bool) (Decision, error) {
	if force {
		return Decision{Fetch: true, Reason: ReasonForce}, nil
	}

	rec, err := e.store.Get(ctx, url)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load record: %w", err)
	}
	if rec == nil {
		return Decision{Fetch: true, Reason: ReasonNoRecord}, nil
	}
	if !rec.Downloaded() {
		return Decision{Fetch: true, Reason: StatusReason(rec.Status)}, nil
	}

	// The record claims downloaded; verify against live server metadata.
	probe, err := e.prober.ProbeURL(ctx, url)
	if err != nil {
		// Skip rather than re-download: the operator can use force if the
		// probe failure persists.
		e.logger.Debug("freshness probe failed", "url", url, "error", err)
		return Decision{Fetch: false, Reason: ReasonProbeFailed}, nil
	}

	// The probe succeeded, so this counts as a freshness evaluation
	// regardless of the outcome.
	if !e.readOnly {
		if err := e.store.Upsert(ctx, url, store.Fields{
			LastChecked: store.TimeOf(e.now()),
		}); err != nil {
			e.logger.Warn("failed to update last checked", "url", url, "error", err)
		}
	}

	switch {
	case probe.ETag != "" && probe.ETag != rec.ETag:
		return Decision{Fetch: true, Reason: ReasonETagChanged}, nil
	case probe.LastModified != "" && probe.LastModified != rec.LastModified:
		return Decision{Fetch: true, Reason: ReasonLastModifiedChanged}, nil
	case probe.ETag == "" && probe.LastModified == "":
		return Decision{Fetch: false, Reason: ReasonNoRemoteMetadata}, nil
	default:
		return Decision{Fetch: false, Reason: ReasonNoChange}, nil
	}
}
