// Package crawler implements the recursive same-domain traversal.
//
// # Architecture
//
// The Controller walks the link graph depth-first from a seed URL. Each
// URL is dispatched at most once per run: downloadable URLs (per the
// configured extension classifier) are leaves routed through the
// freshness engine and fetcher, and everything else is fetched as an
// HTML page, parsed for links, and expanded within the seed's domain.
//
// # Components
//
//   - Controller: coordinates the traversal and per-run visited state
//   - Parser: extracts absolutized, fragment-free hyperlink targets
//
// # Politeness
//
// The traversal is single-threaded with exactly one request in flight.
// A rate limiter paces same-domain recursion, an optional robots.txt
// gate can veto page fetches, and depth and page budgets fail closed on
// pathological sites.
package crawler
