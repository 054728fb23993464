// Package main provides the entry point for the filegrab CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for filegrab.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filegrab",
		Short: "Domain-scoped crawler that mirrors downloadable files",
		Long: `filegrab crawls a website starting from a seed URL, discovers files by
extension, and downloads them into a local directory.

Every URL is tracked in a local SQLite database. On later runs filegrab
probes the server's ETag and Last-Modified headers and only re-downloads
files that actually changed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
