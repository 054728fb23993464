// Package robots evaluates robots.txt rules for crawled hosts.
//
// The gate is opt-in: the original crawl behavior ignores robots.txt, so
// a disabled gate allows everything. When enabled it fetches and caches
// per-host rules, failing open on fetch or parse errors — an unreachable
// robots.txt must not halt a crawl.
package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// DefaultCacheTTL is how long fetched robots.txt rules stay cached.
const DefaultCacheTTL = 30 * time.Minute

// Gate evaluates robots.txt rules with per-host caching.
type Gate struct {
	// client issues the robots.txt fetches.
	client *http.Client

	// userAgent is matched against robots.txt groups and sent with
	// robots.txt requests.
	userAgent string

	// enabled turns evaluation on. A disabled gate allows everything.
	enabled bool

	// ttl bounds how long cached rules are reused.
	ttl time.Duration

	// cache maps host to fetched rules. The crawl is single-threaded, so
	// no locking is needed.
	cache map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// Option configures a Gate.
type Option func(*Gate)

// WithCacheTTL sets how long cached rules are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		g.ttl = ttl
	}
}

// NewGate constructs a robots gate. If enabled is false the gate allows
// every URL without network access.
func NewGate(client *http.Client, userAgent string, enabled bool, opts ...Option) *Gate {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	g := &Gate{
		client:    client,
		userAgent: userAgent,
		enabled:   enabled,
		ttl:       DefaultCacheTTL,
		cache:     make(map[string]cacheEntry),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Allowed reports whether the target URL may be crawled.
func (g *Gate) Allowed(ctx context.Context, target *url.URL) bool {
	if !g.enabled {
		return true
	}
	if target == nil || !target.IsAbs() {
		return false
	}

	rules, err := g.rules(ctx, target)
	if err != nil {
		// Fail open on robots errors (common industry practice).
		return true
	}

	group := rules.FindGroup(g.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}
	return group.Test(target.Path)
}

// rules returns the cached or freshly fetched rules for the target's host.
func (g *Gate) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := strings.ToLower(target.Host)

	if entry, ok := g.cache[host]; ok && time.Since(entry.fetched) < g.ttl {
		return entry.rules, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build robots request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	g.cache[host] = cacheEntry{fetched: time.Now(), rules: data}
	return data, nil
}
