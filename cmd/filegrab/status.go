package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/filegrab/filegrab/internal/config"
	"github.com/filegrab/filegrab/internal/report"
	"github.com/filegrab/filegrab/internal/store"
)

// defaultStatusLimit is how many recent records the status report shows.
const defaultStatusLimit = 20

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the tracked-URL database status",
		Long: `Status summarizes the state database: how many URLs are tracked, their
statuses, and the most recently checked records.

Examples:
  # Human-readable summary
  filegrab status

  # Machine-readable JSON
  filegrab status --json

  # Markdown report written to a file
  filegrab status --markdown -o status.md`,
		RunE: runStatusCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultStatusLimit,
		"Number of recent records to show")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("db-dir", "",
		"Directory holding the state database (default: XDG data directory)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return config.ErrConflictingReportFormats
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Status is read-only: a missing database is reported, not created.
	opts := store.DefaultOptions()
	opts.CreateIfNotExists = false
	st, err := store.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no state database at %s (run `filegrab crawl` first): %w", dbDir, err)
	}
	defer st.Close()

	status, err := collectStatus(cmd.Context(), st, limit)
	if err != nil {
		return err
	}

	output, cleanup, err := openReportOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer cleanup()

	var writer report.Writer
	switch {
	case jsonOut:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case markdownOut:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(getVerboseFlag(cmd)))
	}

	if _, err := writer.Write(status); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// collectStatus assembles the status snapshot from the store.
func collectStatus(ctx context.Context, st *store.Store, limit int) (*report.Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	summary, err := st.Summarize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize database: %w", err)
	}

	records, err := st.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent records: %w", err)
	}

	return &report.Status{
		Database:    st.Path(),
		GeneratedAt: time.Now(),
		Summary:     summary,
		Records:     records,
	}, nil
}

// openReportOutput resolves the report destination: a file when
// outputPath is set, the command's stdout otherwise. The returned
// cleanup closes the file if one was opened.
func openReportOutput(cmd *cobra.Command, outputPath string) (io.Writer, func(), error) {
	if outputPath == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}
