package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/filegrab/filegrab/internal/model"
	"github.com/filegrab/filegrab/internal/store"
)

// seedStore creates a store with a few records and returns its directory.
func seedStore(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(dir, store.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now()

	records := []struct {
		url    string
		status model.Status
	}{
		{"http://files.example.org/a.pdf", model.StatusDownloaded},
		{"http://files.example.org/b.zip", model.StatusSkipped},
		{"http://files.example.org/c.exe", model.StatusFailed},
	}
	for _, rec := range records {
		err := st.Upsert(ctx, rec.url, store.Fields{
			Status:      store.StatusOf(rec.status),
			LastChecked: store.TimeOf(now),
		})
		if err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}

	return dir
}

// TestNewStatusCmd tests the status command creation.
func TestNewStatusCmd(t *testing.T) {
	t.Parallel()

	cmd := NewStatusCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "status" {
			t.Errorf("expected use 'status', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"limit", "json", "markdown", "output", "db-dir"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestRunStatusCmd tests the status command execution.
func TestRunStatusCmd(t *testing.T) {
	t.Parallel()

	t.Run("renders a text summary", func(t *testing.T) {
		t.Parallel()

		dir := seedStore(t)

		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"FILEGRAB STATUS", "DOWNLOADED: 1", "TOTAL:      3"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("renders JSON", func(t *testing.T) {
		t.Parallel()

		dir := seedStore(t)

		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--json"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out struct {
			Summary struct {
				Total int `json:"total"`
			} `json:"summary"`
		}
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if out.Summary.Total != 3 {
			t.Errorf("summary.total = %d, want 3", out.Summary.Total)
		}
	})

	t.Run("renders Markdown", func(t *testing.T) {
		t.Parallel()

		dir := seedStore(t)

		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--markdown"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "# filegrab Status") {
			t.Error("expected a Markdown heading")
		}
	})

	t.Run("rejects conflicting formats", func(t *testing.T) {
		t.Parallel()

		dir := seedStore(t)

		cmd := NewStatusCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", dir, "--json", "--markdown"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected an error for --json with --markdown")
		}
	})

	t.Run("missing database is a clear error", func(t *testing.T) {
		t.Parallel()

		cmd := NewStatusCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected an error for a missing database")
		}
		if !strings.Contains(err.Error(), "filegrab crawl") {
			t.Errorf("error should point at `filegrab crawl`, got %v", err)
		}
	})

	t.Run("limit bounds the record list", func(t *testing.T) {
		t.Parallel()

		dir := seedStore(t)

		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--json", "--limit", "1"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out struct {
			Records []any `json:"records"`
		}
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(out.Records) != 1 {
			t.Errorf("got %d records, want 1", len(out.Records))
		}
	})
}
