// Package model defines the core data structures shared across filegrab.
//
// This package contains the following main types:
//   - Record: The per-URL download metadata row persisted across runs
//   - Status: The download lifecycle state machine
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. The store, freshness engine, fetcher, and report
// writer all need these types, so centralizing them prevents import cycles.
package model
