package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/filegrab/filegrab/internal/classify"
	"github.com/filegrab/filegrab/internal/fetch"
	"github.com/filegrab/filegrab/internal/freshness"
	"github.com/filegrab/filegrab/internal/model"
	"github.com/filegrab/filegrab/internal/robots"
	"github.com/filegrab/filegrab/internal/store"
	"github.com/filegrab/filegrab/internal/webclient"
)

// Default traversal bounds.
const (
	// DefaultMaxDepth bounds recursion depth so a pathological site
	// cannot exhaust the call stack. When exceeded, expansion stops
	// without error.
	DefaultMaxDepth = 32

	// DefaultMaxPages bounds the number of pages fetched per run.
	DefaultMaxPages = 2000

	// DefaultDelay is the pause before each same-domain recursive fetch.
	// A deliberate, simple rate limit rather than a backoff algorithm.
	DefaultDelay = 500 * time.Millisecond
)

// Controller orchestrates the recursive same-domain traversal: it visits
// pages, classifies links, dispatches downloadable URLs through the
// freshness engine and fetcher, and recurses into same-domain pages.
//
// The traversal is single-threaded and depth-first, so exactly one
// network operation is in flight at a time and all store access is
// strictly sequential.
type Controller struct {
	classifier classify.Set
	store      *store.Store
	engine     *freshness.Engine
	fetcher    *fetch.Fetcher
	client     *webclient.Client
	gate       *robots.Gate
	logger     *slog.Logger

	// limiter paces same-domain recursion. Created from delay at
	// construction time.
	limiter *rate.Limiter

	downloadDir string
	maxDepth    int
	maxPages    int
	dryRun      bool
	force       bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithRobotsGate sets the robots.txt gate. Absent a gate, everything is
// allowed.
func WithRobotsGate(gate *robots.Gate) Option {
	return func(c *Controller) {
		c.gate = gate
	}
}

// WithLogger sets the logger used for traversal diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithDelay sets the pause before each same-domain recursive fetch.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// WithMaxDepth bounds the recursion depth.
func WithMaxDepth(depth int) Option {
	return func(c *Controller) {
		c.maxDepth = depth
	}
}

// WithMaxPages bounds the number of pages fetched per run.
func WithMaxPages(pages int) Option {
	return func(c *Controller) {
		c.maxPages = pages
	}
}

// WithDryRun makes the run report-only: no files written, no store
// mutations.
func WithDryRun(dryRun bool) Option {
	return func(c *Controller) {
		c.dryRun = dryRun
	}
}

// WithForce bypasses the freshness decision for every downloadable URL.
func WithForce(force bool) Option {
	return func(c *Controller) {
		c.force = force
	}
}

// New creates a crawl controller.
func New(classifier classify.Set, st *store.Store, engine *freshness.Engine, fetcher *fetch.Fetcher, client *webclient.Client, downloadDir string, opts ...Option) *Controller {
	c := &Controller{
		classifier:  classifier,
		store:       st,
		engine:      engine,
		fetcher:     fetcher,
		client:      client,
		logger:      slog.Default(),
		limiter:     rate.NewLimiter(rate.Every(DefaultDelay), 1),
		downloadDir: downloadDir,
		maxDepth:    DefaultMaxDepth,
		maxPages:    DefaultMaxPages,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Stats summarizes a finished run.
type Stats struct {
	// Visited is the number of unique URLs dispatched this run.
	Visited int

	// Pages is the number of HTML pages fetched.
	Pages int

	// Fetched, Skipped, and Failed count downloadable-URL outcomes.
	Fetched int
	Skipped int
	Failed  int
}

// run holds the state of one traversal. It is created per Crawl call and
// never shared, so a Controller can be reused across runs.
type run struct {
	// visited memoizes dispatched URLs to guarantee termination on
	// cyclic link graphs. It resets every run, unlike the store, whose
	// downloaded statuses legitimately persist across runs.
	visited map[string]bool

	// baseDomain is the host the traversal is scoped to.
	baseDomain string

	stats Stats
}

// Crawl traverses the link graph reachable from startURL, restricted to
// startURL's domain, and returns run statistics.
func (c *Controller) Crawl(ctx context.Context, startURL string) (*Stats, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL %q: %w", startURL, err)
	}
	if start.Host == "" {
		return nil, fmt.Errorf("could not determine domain from start URL %q", startURL)
	}

	r := &run{
		visited:    make(map[string]bool),
		baseDomain: start.Host,
	}

	if err := c.crawl(ctx, r, normalizeURL(startURL), 0); err != nil {
		return &r.stats, err
	}

	return &r.stats, nil
}

// crawl processes one URL: a downloadable URL is a leaf dispatched to the
// fetcher; anything else is treated as a page whose links are classified
// and followed. Only context cancellation propagates as an error — page
// failures abandon the branch and the traversal continues.
func (c *Controller) crawl(ctx context.Context, r *run, pageURL string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if r.visited[pageURL] {
		return nil
	}
	r.visited[pageURL] = true
	r.stats.Visited++

	c.logger.Info("crawling", "url", pageURL, "depth", depth)

	// A downloadable URL is a leaf: fetch or skip, never parse.
	if c.classifier.Match(pageURL) {
		c.dispatchFile(ctx, r, pageURL)
		return nil
	}

	if r.stats.Pages >= c.maxPages {
		c.logger.Warn("page budget exhausted, not expanding", "url", pageURL, "maxPages", c.maxPages)
		return nil
	}

	if c.gate != nil && !c.allowedByRobots(ctx, pageURL) {
		c.logger.Info("blocked by robots.txt", "url", pageURL)
		return nil
	}

	body, err := c.client.Page(ctx, pageURL)
	if err != nil {
		// Non-fatal: abandon this branch, keep the rest of the traversal.
		c.logger.Warn("could not fetch page", "url", pageURL, "error", err)
		return nil
	}
	r.stats.Pages++

	parser, err := NewParser(pageURL)
	if err != nil {
		c.logger.Warn("could not parse page URL", "url", pageURL, "error", err)
		return nil
	}
	links, err := parser.Links(bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("could not parse page body", "url", pageURL, "error", err)
		return nil
	}

	// First pass: dispatch every unvisited downloadable link. The links
	// come around again in the recursion pass below; the visited set is
	// the only guard against double dispatch.
	for _, link := range links {
		link = normalizeURL(link)
		if !c.classifier.Match(link) || r.visited[link] {
			continue
		}
		c.dispatchFile(ctx, r, link)
		r.visited[link] = true
		r.stats.Visited++
	}

	// Second pass: recurse into unvisited same-domain links.
	if depth >= c.maxDepth {
		c.logger.Warn("depth limit reached, not expanding", "url", pageURL, "depth", depth)
		return nil
	}
	for _, link := range links {
		link = normalizeURL(link)
		if !c.sameDomain(r, link) || r.visited[link] {
			continue
		}

		// Politeness pause before each same-domain recursive fetch.
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := c.crawl(ctx, r, link, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// dispatchFile runs the freshness decision for a downloadable URL and
// acts on it: fetch on a positive decision, record skipped on a negative
// one. Dry runs never mutate the store.
func (c *Controller) dispatchFile(ctx context.Context, r *run, fileURL string) {
	decision, err := c.engine.Decide(ctx, fileURL, c.force)
	if err != nil {
		c.logger.Error("freshness decision failed", "url", fileURL, "error", err)
		r.stats.Failed++
		return
	}
	c.logger.Info("freshness decision", "url", fileURL, "fetch", decision.Fetch, "reason", decision.Reason)

	if !decision.Fetch {
		r.stats.Skipped++
		if c.dryRun {
			return
		}
		err := c.store.Upsert(ctx, fileURL, store.Fields{
			Status:      store.StatusOf(model.StatusSkipped),
			LastChecked: store.TimeOf(time.Now()),
		})
		if err != nil {
			c.logger.Error("failed to record skip", "url", fileURL, "error", err)
		}
		return
	}

	if err := c.fetcher.Fetch(ctx, fileURL, c.downloadDir, c.dryRun); err != nil {
		r.stats.Failed++
		return
	}
	r.stats.Fetched++
}

// sameDomain reports whether link belongs to the run's base domain.
func (c *Controller) sameDomain(r *run, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.baseDomain)
}

// allowedByRobots asks the gate about a page URL.
func (c *Controller) allowedByRobots(ctx context.Context, pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return c.gate.Allowed(ctx, u)
}

// normalizeURL canonicalizes a URL for visited-set membership: fragment
// stripped, scheme and host lowercased, and the empty path treated as "/"
// so http://example.org and http://example.org/ are the same page.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}
