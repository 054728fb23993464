package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/filegrab/filegrab/internal/classify"
	"github.com/filegrab/filegrab/internal/config"
	"github.com/filegrab/filegrab/internal/crawler"
	"github.com/filegrab/filegrab/internal/fetch"
	"github.com/filegrab/filegrab/internal/freshness"
	applog "github.com/filegrab/filegrab/internal/log"
	"github.com/filegrab/filegrab/internal/robots"
	"github.com/filegrab/filegrab/internal/store"
	"github.com/filegrab/filegrab/internal/webclient"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Crawl a site and download matching files",
		Long: `Crawl traverses a website starting from the seed URL, staying within the
seed's domain, and downloads every file whose extension matches the
configured list.

Each URL is tracked in a local SQLite database. Files already recorded
as downloaded are verified with a cheap HEAD probe and only re-fetched
when the server's ETag or Last-Modified header changed.

The start URL can be given as an argument or via start_url in the
.filegrab configuration file. An argument wins.

Examples:
  # Crawl a site with default settings
  filegrab crawl http://files.example.org/

  # See what would be downloaded without touching disk or database
  filegrab crawl --dry-run http://files.example.org/

  # Re-download everything regardless of freshness
  filegrab crawl --force http://files.example.org/

  # Only PDFs and archives, into a chosen directory
  filegrab crawl -x "pdf,zip" -d ~/mirror http://files.example.org/

Configuration file (.filegrab) example:
  start_url: http://files.example.org/
  username: alice
  password: secret
  extensions: pdf|zip|docx
  delay: 1s`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().BoolP("dry-run", "n", false,
		"Report what would be downloaded without writing files or the database")
	cmd.Flags().BoolP("force", "f", false,
		"Re-download every matching file regardless of freshness")
	cmd.Flags().StringP("download-dir", "d", config.DefaultDownloadDir,
		"Directory downloaded files are written to")
	cmd.Flags().StringP("extensions", "x", classify.DefaultExtensions,
		"Downloadable extensions, pipe or comma separated")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Pause between page fetches on the same site")
	cmd.Flags().Int("max-depth", config.DefaultMaxDepth,
		"Maximum crawl recursion depth")
	cmd.Flags().Int("max-pages", config.DefaultMaxPages,
		"Maximum number of pages to fetch per run")
	cmd.Flags().Bool("robots", false,
		"Check robots.txt before fetching pages")
	cmd.Flags().String("user-agent", "",
		"Override the User-Agent header")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Directory holding the state database (default: XDG data directory)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .filegrab in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Structured logging with credential redaction: basic-auth passwords
	// must never reach the log output.
	logger := applog.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cmd, cfg, logger)
}

// buildCrawlConfig assembles the crawl configuration: defaults, then the
// .filegrab file, then CLI flags, then the positional start URL.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly named a config file, it must exist. A
	// searched-for one is optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Flags override file settings only when actually set.
	if cmd.Flags().Changed("download-dir") {
		if cfg.DownloadDir, err = cmd.Flags().GetString("download-dir"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("extensions") {
		if cfg.Extensions, err = cmd.Flags().GetString("extensions"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("delay") {
		if cfg.Delay, err = cmd.Flags().GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-depth") {
		if cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-pages") {
		if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("robots") {
		if cfg.Robots, err = cmd.Flags().GetBool("robots"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("user-agent") {
		if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	if cfg.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return nil, err
	}
	if cfg.Force, err = cmd.Flags().GetBool("force"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// The positional start URL wins over the config file.
	if len(args) > 0 {
		cfg.StartURL = args[0]
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl wires the components and runs the traversal.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"startURL", cfg.StartURL,
		"downloadDir", cfg.DownloadDir,
		"dryRun", cfg.DryRun,
		"force", cfg.Force,
	)

	st, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()
	logger.Info("database opened", "path", st.Path())

	clientOpts := []webclient.Option{
		webclient.WithBasicAuth(cfg.Username, cfg.Password),
	}
	if cfg.UserAgent != "" {
		clientOpts = append(clientOpts, webclient.WithUserAgent(cfg.UserAgent))
	}
	client := webclient.New(clientOpts...)

	engine := freshness.NewEngine(st, client,
		freshness.WithLogger(logger),
		freshness.WithReadOnly(cfg.DryRun),
	)
	fetcher := fetch.New(st, client, fetch.WithLogger(logger))
	gate := robots.NewGate(client.HTTPClient(), client.UserAgent(), cfg.Robots)

	classifier := classify.New(cfg.Extensions)
	c := crawler.New(classifier, st, engine, fetcher, client, cfg.DownloadDir,
		crawler.WithLogger(logger),
		crawler.WithRobotsGate(gate),
		crawler.WithDelay(cfg.Delay),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDryRun(cfg.DryRun),
		crawler.WithForce(cfg.Force),
	)

	if cfg.DryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Dry run: nothing will be written.")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Crawling %s...\n", cfg.StartURL)
	fmt.Fprintf(cmd.OutOrStdout(), "Looking for: %s\n", strings.Join(classifier.Extensions(), ", "))
	startTime := time.Now()

	stats, err := c.Crawl(ctx, cfg.StartURL)
	elapsed := time.Since(startTime)

	// Partial statistics still get printed on interruption.
	if stats != nil {
		printStats(cmd, stats, elapsed)
	}
	if err != nil {
		return fmt.Errorf("crawl aborted: %w", err)
	}

	return nil
}

// printStats writes the end-of-run summary.
func printStats(cmd *cobra.Command, stats *crawler.Stats, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nCrawl finished in %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  URLs visited: %d\n", stats.Visited)
	fmt.Fprintf(out, "  Pages parsed: %d\n", stats.Pages)
	fmt.Fprintf(out, "  Downloaded:   %d\n", stats.Fetched)
	fmt.Fprintf(out, "  Skipped:      %d\n", stats.Skipped)
	fmt.Fprintf(out, "  Failed:       %d\n", stats.Failed)
}
