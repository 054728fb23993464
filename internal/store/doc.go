// Package store provides SQLite-based persistence for filegrab.
//
// The store keeps one row per downloadable URL in a single `files` table,
// keyed by URL. Updates are partial: callers supply only the fields they
// know, and the store merges them into the existing row with COALESCE.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the state is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for a strictly sequential crawler
// 4. Synchronous commits give the durability the decision engine relies on
package store
