// Package main provides the entry point for the filegrab CLI.
//
// filegrab crawls a website starting from a seed URL, discovers
// downloadable files, and keeps a local mirror fresh: files are only
// re-downloaded when the server's cache validators say they changed.
//
// Usage:
//
//	filegrab crawl http://files.example.org/
//	filegrab status
//
// See --help for all available options.
package main

// main is the entry point for filegrab.
func main() {
	Execute()
}
