package config

import "errors"

// Configuration validation errors. Package-level sentinels so callers can
// use errors.Is() while still getting a human-readable message.
var (
	// ErrNoStartURL is returned when no start URL is configured. The crawl
	// has nowhere to begin without one.
	ErrNoStartURL = errors.New("no start URL: set start_url in .filegrab or pass one as an argument")

	// ErrPlaceholderStartURL is returned when the start URL is the template
	// placeholder. Crawling example.com is never what the operator meant.
	ErrPlaceholderStartURL = errors.New("start URL is the unedited placeholder: edit start_url in .filegrab")

	// ErrInvalidStartURL is returned when the start URL is not an absolute
	// http or https URL.
	ErrInvalidStartURL = errors.New("invalid start URL: must be absolute http or https")

	// ErrPartialCredentials is returned when only one of username and
	// password is set. Basic auth needs both.
	ErrPartialCredentials = errors.New("partial credentials: set both username and password, or neither")

	// ErrNoExtensions is returned when the extension list is empty after
	// parsing. A crawl that can match nothing downloads nothing.
	ErrNoExtensions = errors.New("no downloadable extensions configured")

	// ErrInvalidDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxDepth is returned when the depth bound is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
