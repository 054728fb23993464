package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/filegrab/filegrab/internal/model"
)

// setupTestStore creates a temporary store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// TestOpen tests store opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "state", "subdir")
		s, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("data persists across open cycles", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()

		s1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		ctx := context.Background()
		if err := s1.Upsert(ctx, "http://example.org/a.pdf", Fields{
			Status: StatusOf(model.StatusDownloaded),
		}); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		s1.Close()

		s2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		defer s2.Close()

		rec, err := s2.Get(ctx, "http://example.org/a.pdf")
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if rec == nil {
			t.Fatal("record should survive reopen")
		}
		if rec.Status != model.StatusDownloaded {
			t.Errorf("status = %q, want downloaded", rec.Status)
		}
	})
}

// TestGet tests point lookups.
func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for absent record", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)

		rec, err := s.Get(context.Background(), "http://example.org/missing.zip")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil record, got %+v", rec)
		}
	})

	t.Run("round-trips a full record", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()

		checked := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		downloaded := checked.Add(2 * time.Second)

		err := s.Upsert(ctx, "http://example.org/a.pdf", Fields{
			Filename:       String("a.pdf"),
			LocalPath:      String("/tmp/a.pdf"),
			Status:         StatusOf(model.StatusDownloaded),
			ETag:           String(`"abc123"`),
			LastModified:   String("Wed, 21 Oct 2025 07:28:00 GMT"),
			LastChecked:    TimeOf(checked),
			LastDownloaded: TimeOf(downloaded),
		})
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		rec, err := s.Get(ctx, "http://example.org/a.pdf")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if rec == nil {
			t.Fatal("expected record, got nil")
		}

		if rec.Filename != "a.pdf" {
			t.Errorf("filename = %q, want a.pdf", rec.Filename)
		}
		if rec.LocalPath != "/tmp/a.pdf" {
			t.Errorf("local path = %q, want /tmp/a.pdf", rec.LocalPath)
		}
		if rec.ETag != `"abc123"` {
			t.Errorf("etag = %q, want \"abc123\"", rec.ETag)
		}
		if rec.LastModified != "Wed, 21 Oct 2025 07:28:00 GMT" {
			t.Errorf("last modified = %q", rec.LastModified)
		}
		if !rec.LastChecked.Equal(checked) {
			t.Errorf("last checked = %v, want %v", rec.LastChecked, checked)
		}
		if !rec.LastDownloaded.Equal(downloaded) {
			t.Errorf("last downloaded = %v, want %v", rec.LastDownloaded, downloaded)
		}
	})
}

// TestUpsertPartialMerge tests the merge-by-presence contract: updating one
// field must leave all others at their prior values.
func TestUpsertPartialMerge(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	url := "http://example.org/report.pdf"
	checked := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	// Write a full record.
	err := s.Upsert(ctx, url, Fields{
		Filename:       String("report.pdf"),
		LocalPath:      String("/data/report.pdf"),
		Status:         StatusOf(model.StatusDownloaded),
		ETag:           String(`"v1"`),
		LastModified:   String("Mon, 05 Jan 2026 00:00:00 GMT"),
		LastChecked:    TimeOf(checked),
		LastDownloaded: TimeOf(checked),
	})
	if err != nil {
		t.Fatalf("failed to upsert full record: %v", err)
	}

	// Partial-upsert only the status.
	if err := s.Upsert(ctx, url, Fields{Status: StatusOf(model.StatusSkipped)}); err != nil {
		t.Fatalf("failed to upsert partial record: %v", err)
	}

	rec, err := s.Get(ctx, url)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}

	if rec.Status != model.StatusSkipped {
		t.Errorf("status = %q, want skipped", rec.Status)
	}
	if rec.Filename != "report.pdf" {
		t.Errorf("filename changed by partial upsert: %q", rec.Filename)
	}
	if rec.LocalPath != "/data/report.pdf" {
		t.Errorf("local path changed by partial upsert: %q", rec.LocalPath)
	}
	if rec.ETag != `"v1"` {
		t.Errorf("etag changed by partial upsert: %q", rec.ETag)
	}
	if rec.LastModified != "Mon, 05 Jan 2026 00:00:00 GMT" {
		t.Errorf("last modified changed by partial upsert: %q", rec.LastModified)
	}
	if !rec.LastChecked.Equal(checked) {
		t.Errorf("last checked changed by partial upsert: %v", rec.LastChecked)
	}
	if !rec.LastDownloaded.Equal(checked) {
		t.Errorf("last downloaded changed by partial upsert: %v", rec.LastDownloaded)
	}
}

// TestUpsertCreatesSparseRecord tests that upserting a new URL with only
// some fields leaves the rest unset.
func TestUpsertCreatesSparseRecord(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	url := "http://example.org/new.zip"
	if err := s.Upsert(ctx, url, Fields{Status: StatusOf(model.StatusPending)}); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	rec, err := s.Get(ctx, url)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got nil")
	}

	if rec.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", rec.Status)
	}
	if rec.Filename != "" || rec.ETag != "" {
		t.Errorf("unset fields should be empty, got filename=%q etag=%q", rec.Filename, rec.ETag)
	}
	if !rec.LastChecked.IsZero() {
		t.Errorf("unset last checked should be zero, got %v", rec.LastChecked)
	}
}

// TestSummarize tests aggregate counts.
func TestSummarize(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	statuses := map[string]model.Status{
		"http://example.org/a.pdf": model.StatusDownloaded,
		"http://example.org/b.pdf": model.StatusDownloaded,
		"http://example.org/c.zip": model.StatusFailed,
		"http://example.org/d.zip": model.StatusSkipped,
		"http://example.org/e.doc": model.StatusPending,
	}
	for url, status := range statuses {
		if err := s.Upsert(ctx, url, Fields{Status: StatusOf(status)}); err != nil {
			t.Fatalf("failed to upsert %s: %v", url, err)
		}
	}

	sum, err := s.Summarize(ctx)
	if err != nil {
		t.Fatalf("failed to summarize: %v", err)
	}

	if sum.Total != 5 {
		t.Errorf("total = %d, want 5", sum.Total)
	}
	if sum.Downloaded != 2 {
		t.Errorf("downloaded = %d, want 2", sum.Downloaded)
	}
	if sum.Failed != 1 {
		t.Errorf("failed = %d, want 1", sum.Failed)
	}
	if sum.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", sum.Skipped)
	}
	if sum.Pending != 1 {
		t.Errorf("pending = %d, want 1", sum.Pending)
	}
}

// TestRecent tests recency ordering and the limit.
func TestRecent(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	urls := []string{
		"http://example.org/old.pdf",
		"http://example.org/mid.pdf",
		"http://example.org/new.pdf",
	}
	for i, url := range urls {
		err := s.Upsert(ctx, url, Fields{
			Status:      StatusOf(model.StatusDownloaded),
			LastChecked: TimeOf(base.Add(time.Duration(i) * time.Hour)),
		})
		if err != nil {
			t.Fatalf("failed to upsert %s: %v", url, err)
		}
	}

	records, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list recent: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].URL != "http://example.org/new.pdf" {
		t.Errorf("most recent = %q, want new.pdf", records[0].URL)
	}
	if records[1].URL != "http://example.org/mid.pdf" {
		t.Errorf("second = %q, want mid.pdf", records[1].URL)
	}
}
