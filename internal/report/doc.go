// Package report renders the crawl state as status reports.
//
// A Status snapshot combines aggregate counts with the most recently
// checked records. Three writers render it: plain text for terminals,
// JSON for tool integration, and GitHub-flavored Markdown for sharing.
package report
