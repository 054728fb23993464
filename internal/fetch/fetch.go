// Package fetch downloads classified file URLs and records every outcome
// in the state store.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/filegrab/filegrab/internal/model"
	"github.com/filegrab/filegrab/internal/store"
	"github.com/filegrab/filegrab/internal/webclient"
)

// Fetcher transfers file URLs to a local directory, keeping the state
// store in sync with every attempt.
//
// The fetcher is not content-addressed: the destination is keyed by the
// derived filename, so identical filenames from different URLs collide and
// the later URL is recorded as downloaded without verifying content
// equality. This mirrors the local-file short-circuit below and is an
// accepted limitation.
type Fetcher struct {
	// store receives status updates for every attempt.
	store *store.Store

	// client performs HEAD probes (dry run) and streamed GETs.
	client *webclient.Client

	// logger receives per-file diagnostics.
	logger *slog.Logger

	// now supplies timestamps; injectable for tests.
	now func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// New creates a Fetcher over the given store and client.
func New(st *store.Store, client *webclient.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:  st,
		client: client,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch downloads fileURL into targetDir. It returns nil on success, where
// success includes "the file already exists locally" and every dry run.
//
// On a real transfer the record is marked pending before any bytes move,
// so a crash mid-download shows up on the next run as "not confirmed
// downloaded". On failure the partial file is removed: we never leave
// half-written output that a later run would mistake for a finished
// download.
func (f *Fetcher) Fetch(ctx context.Context, fileURL, targetDir string, dryRun bool) error {
	filename, err := deriveFilename(fileURL, f.now)
	if err != nil {
		return f.fail(ctx, fileURL, dryRun, err)
	}

	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return f.fail(ctx, fileURL, dryRun, fmt.Errorf("failed to create download directory: %w", err))
	}
	dest := filepath.Join(targetDir, filename)

	// A file already present at the destination counts as a completed
	// download. No byte-level verification is performed.
	if _, err := os.Stat(dest); err == nil {
		f.logger.Info("already exists locally", "url", fileURL, "path", dest)
		if dryRun {
			return nil
		}
		return f.store.Upsert(ctx, fileURL, store.Fields{
			Filename:       store.String(filename),
			LocalPath:      store.String(dest),
			Status:         store.StatusOf(model.StatusDownloaded),
			LastDownloaded: store.TimeOf(f.now()),
		})
	}

	if dryRun {
		// Probe for display only; no file writes, no store mutations.
		if probe, err := f.client.ProbeURL(ctx, fileURL); err != nil {
			f.logger.Info("would download (probe failed)", "url", fileURL, "error", err)
		} else {
			f.logger.Info("would download", "url", fileURL, "status", probe.StatusCode)
		}
		return nil
	}

	// Mark pending before the transfer so an interrupted download is
	// observable on the next run.
	err = f.store.Upsert(ctx, fileURL, store.Fields{
		Filename:    store.String(filename),
		LocalPath:   store.String(dest),
		Status:      store.StatusOf(model.StatusPending),
		LastChecked: store.TimeOf(f.now()),
	})
	if err != nil {
		return err
	}

	if err := f.transfer(ctx, fileURL, dest); err != nil {
		return f.fail(ctx, fileURL, dryRun, err)
	}

	f.logger.Info("downloaded", "url", fileURL, "path", dest)
	return nil
}

// transfer streams the response body to dest and records the outcome.
// Validators are captured from the transfer response itself, not from any
// earlier probe: the two may have been issued independently.
func (f *Fetcher) transfer(ctx context.Context, fileURL, dest string) error {
	resp, cancel, err := f.client.Fetch(ctx, fileURL)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Destination is operator-configured
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}

	now := f.now()
	fields := store.Fields{
		Status:         store.StatusOf(model.StatusDownloaded),
		LastChecked:    store.TimeOf(now),
		LastDownloaded: store.TimeOf(now),
	}
	// Absent headers stay absent: merge-by-presence means we never
	// overwrite a stored validator with an empty one.
	if etag := resp.Header.Get("ETag"); etag != "" {
		fields.ETag = store.String(etag)
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		fields.LastModified = store.String(lm)
	}

	return f.store.Upsert(ctx, fileURL, fields)
}

// fail records a failed attempt and returns the original error.
// Dry runs never mutate the store.
func (f *Fetcher) fail(ctx context.Context, fileURL string, dryRun bool, cause error) error {
	f.logger.Warn("download failed", "url", fileURL, "error", cause)
	if dryRun {
		return cause
	}

	err := f.store.Upsert(ctx, fileURL, store.Fields{
		Status:      store.StatusOf(model.StatusFailed),
		LastChecked: store.TimeOf(f.now()),
	})
	if err != nil {
		f.logger.Error("failed to record failure", "url", fileURL, "error", err)
	}

	return cause
}

// deriveFilename extracts a local filename from the URL path. A path with
// no terminal segment gets a synthesized time-based name that keeps the
// original extension: stable enough within one run, not collision-proof
// across runs.
func deriveFilename(fileURL string, now func() time.Time) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("unparseable URL %s: %w", fileURL, err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("downloaded_file_%d%s", now().Unix(), path.Ext(u.Path))
	}

	return name, nil
}
