package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/filegrab/filegrab/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new filegrab configuration file",
		Long: `Initialize creates a new .filegrab configuration file in the current
directory.

The generated file includes every available setting with its default,
plus commented examples for authentication and crawl bounds. Edit
start_url before running a crawl: the placeholder value is rejected.

Examples:
  # Create .filegrab in current directory
  filegrab init

  # Create config file at a specific path
  filegrab init -o myconfig.yaml

  # Force overwrite existing file
  filegrab init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if _, err := os.Stat(outputPath); err == nil {
		if !force {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("failed to replace %s: %w", outputPath, err)
		}
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := config.WriteSampleConfig(outputPath); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit start_url before running a crawl. Other settings to review:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - download_dir: where fetched files are written")
	fmt.Fprintln(cmd.OutOrStdout(), "  - extensions: which file types to download")
	fmt.Fprintln(cmd.OutOrStdout(), "  - username/password: HTTP basic auth credentials")

	return nil
}
