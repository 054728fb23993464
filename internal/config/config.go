package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/filegrab/filegrab/internal/classify"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "filegrab"

	// PlaceholderStartURL is the start_url value written by `filegrab init`.
	// Running against it is always a mistake, so validation rejects it.
	PlaceholderStartURL = "http://example.com"

	// DefaultDownloadDir is where fetched files land when the operator
	// does not choose a directory.
	DefaultDownloadDir = "downloads"

	// DefaultDelay is the pause between same-domain page fetches. A
	// politeness setting; lower values may trip rate limiting.
	DefaultDelay = 500 * time.Millisecond

	// DefaultMaxDepth bounds crawl recursion.
	DefaultMaxDepth = 32

	// DefaultMaxPages bounds the number of pages fetched per run.
	// This prevents runaway crawling on large or infinitely-generating sites.
	DefaultMaxPages = 2000
)

// Config holds all runtime options for filegrab. A single flat struct:
// the option count is manageable and nesting would add noise.
type Config struct {
	// StartURL is the seed page or file URL the crawl begins from.
	StartURL string

	// Username and Password enable HTTP basic auth when both are set.
	Username string
	Password string

	// DownloadDir is the directory fetched files are written to.
	// Created on demand.
	DownloadDir string

	// Extensions is the downloadable-extension spec, pipe or comma
	// separated ("pdf|zip" or ".pdf,.zip").
	Extensions string

	// Delay is the pause between same-domain page fetches.
	Delay time.Duration

	// MaxDepth is the maximum crawl recursion depth. Depth 0 means only
	// the seed page is expanded.
	MaxDepth int

	// MaxPages is the maximum number of pages fetched per run.
	MaxPages int

	// Robots enables robots.txt checking before page fetches. Off by
	// default to match the tool's historical behavior; the check fails
	// open when enabled.
	Robots bool

	// UserAgent overrides the User-Agent header. Empty means the built-in
	// default.
	UserAgent string

	// DBDir is the directory holding the SQLite state database.
	// Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is an explicit config file path. If empty, the tool
	// searches for .filegrab in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// DryRun reports what a crawl would do without writing files or
	// mutating the state database.
	DryRun bool

	// Force bypasses the freshness check and re-downloads everything.
	Force bool

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport and MarkdownReport select the status output format.
	// Mutually exclusive; both false means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the status report to a file instead of stdout.
	ReportFile string
}

// NewConfig creates a Config with default values. A constructor rather
// than zero values because most defaults are non-zero, and it documents
// what the defaults are.
func NewConfig() *Config {
	return &Config{
		DownloadDir: DefaultDownloadDir,
		Extensions:  classify.DefaultExtensions,
		Delay:       DefaultDelay,
		MaxDepth:    DefaultMaxDepth,
		MaxPages:    DefaultMaxPages,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for filegrab.
// On Linux: ~/.local/share/filegrab
// On macOS: ~/Library/Application Support/filegrab
// On Windows: %LOCALAPPDATA%\filegrab
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for filegrab.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the assembled configuration and returns the first
// problem found. Called once after flag parsing, before any crawling.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if c.StartURL == PlaceholderStartURL {
		return ErrPlaceholderStartURL
	}

	u, err := url.Parse(c.StartURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidStartURL
	}

	if (c.Username == "") != (c.Password == "") {
		return ErrPartialCredentials
	}

	if classify.New(c.Extensions).Len() == 0 {
		return ErrNoExtensions
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
