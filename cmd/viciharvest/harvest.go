package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/willowgs/viciharvest/internal/classify"
	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/database"
	"github.com/willowgs/viciharvest/internal/fetch"
	"github.com/willowgs/viciharvest/internal/harvest"
	"github.com/willowgs/viciharvest/internal/log"
	"github.com/willowgs/viciharvest/internal/model"
	"github.com/willowgs/viciharvest/internal/report"
	"github.com/willowgs/viciharvest/internal/resolve"
	"github.com/willowgs/viciharvest/internal/wiki"
)

// NewHarvestCmd creates the harvest command.
func NewHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest [title...]",
		Short: "Harvest Latin works from la.wikisource.org",
		Long: `Harvest downloads the requested works as clean plain text.

Each page is classified as a single work or a chapter index. Index
pages are resolved to their chapter subpages, first through a curated
table of well-known works and then by link-pattern extraction, and
every chapter is fetched concurrently. Crawl state is saved to a local
database so re-running the same command skips what already succeeded.

Examples:
  # Harvest a single work
  viciharvest harvest Aeneis

  # Harvest several works
  viciharvest harvest Aeneis Georgica "Cato Maior de Senectute"

  # Use a work-list file with priorities and index hints
  viciharvest harvest --list works.yaml

  # Re-fetch everything, ignoring previous state
  viciharvest harvest --force Aeneis

  # Write a Markdown run report to a file
  viciharvest harvest --markdown --output report.md Aeneis

Work-list file (.viciharvest) example:
  works:
    - title: Aeneis
      priority: critical
    - title: Carmina (Catullus)
      index_hint: true
  curated:
    Carmina (Catullus):
      - Carmina (Catullus)/1
      - Carmina (Catullus)/2`,
		Args: cobra.ArbitraryArgs,
		RunE: runHarvestCmd,
	}

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of fetches in flight at once")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of works per batch")
	cmd.Flags().Duration("batch-pause", config.DefaultBatchPause,
		"Pause between batches")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Attempt budget for critical-priority works")
	cmd.Flags().Int("min-length", config.DefaultMinContentLength,
		"Minimum viable content length in bytes")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"How long cached page markup stays valid (0 disables expiry)")
	cmd.Flags().BoolP("force", "f", false,
		"Re-fetch works already marked completed")

	// Work-list file
	cmd.Flags().StringP("list", "l", "",
		"Work-list file path (default: .viciharvest in current or home directory)")

	// Output flags
	cmd.Flags().StringP("data-dir", "d", "",
		"Directory for harvested text files (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the run report to the specified file path")

	return cmd
}

// runHarvestCmd executes the harvest command.
func runHarvestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runHarvest(ctx, cfg, logger)
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

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.BatchPause, err = cmd.Flags().GetDuration("batch-pause")
	if err != nil {
		return nil, err
	}

	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.MinContentLength, err = cmd.Flags().GetInt("min-length")
	if err != nil {
		return nil, err
	}

	cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl")
	if err != nil {
		return nil, err
	}

	cfg.ForceRefresh, err = cmd.Flags().GetBool("force")
	if err != nil {
		return nil, err
	}

	cfg.WorkListPath, err = cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(config.XDGDataDir(), "texts")
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Crawl state always lives in the XDG data directory so repeat runs
	// are idempotent without extra flags.
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are work titles with default priority.
	cfg.Titles = args

	return cfg, nil
}

// buildRequests merges the work-list file and positional titles into one
// request list, applying any curated-table overrides from the file.
//
// If the user explicitly specified a work-list path, a missing file is
// an error. If no path was specified, a missing default file is fine as
// long as positional titles were given.
func buildRequests(cfg *config.Config, curated *config.Curated) ([]model.WorkRequest, error) {
	var requests []model.WorkRequest

	explicitList := cfg.WorkListPath != ""
	listPath := config.FindWorkList(cfg.WorkListPath)

	if listPath != "" {
		wl, err := config.LoadWorkList(listPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load work list %s: %w", listPath, err)
		}
		requests, err = wl.Requests()
		if err != nil {
			return nil, err
		}
		for title, chapters := range wl.Curated {
			curated.Override(title, chapters)
		}
	} else if explicitList {
		return nil, fmt.Errorf("work-list file not found: %s", cfg.WorkListPath)
	}

	seen := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		seen[req.Title] = struct{}{}
	}
	for _, title := range cfg.Titles {
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		requests = append(requests, model.WorkRequest{Title: title})
	}

	if len(requests) == 0 {
		return nil, errors.New("no works to harvest (give titles as arguments or use a work-list file)")
	}

	return requests, nil
}

// runHarvest wires the harvest components together and executes the run.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	curated := config.NewCurated()

	requests, err := buildRequests(cfg, curated)
	if err != nil {
		return err
	}

	logger.Info("starting harvest",
		"works", len(requests),
		"concurrency", cfg.Concurrency,
		"batchSize", cfg.BatchSize,
		"outputDir", cfg.OutputDir,
	)

	// Open the state database; crawl state and the page cache share it.
	sdb, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer sdb.Close()

	state, err := sdb.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load crawl state: %w", err)
	}
	logger.Info("crawl state loaded", "dir", cfg.DBDir)

	client := wiki.NewClient(
		wiki.WithAPIBaseURL(cfg.APIBaseURL),
		wiki.WithExportBaseURL(cfg.ExportBaseURL),
		wiki.WithTimeout(cfg.Timeout),
		wiki.WithUserAgent(cfg.UserAgent),
		wiki.WithLogger(logger),
	)

	cache := database.NewPageCache(sdb, cfg.CacheTTL)
	fetcher := fetch.NewFetcher(client,
		fetch.WithMinContentLength(cfg.MinContentLength),
		fetch.WithCache(cache),
		fetch.WithLogger(logger),
	)

	sink, err := harvest.NewFileSink(cfg.OutputDir)
	if err != nil {
		return err
	}

	orchestrator := harvest.NewOrchestrator(
		fetcher,
		classify.NewClassifier(curated, classify.WithLogger(logger)),
		resolve.NewResolver(curated, resolve.WithLogger(logger)),
		sink,
		harvest.WithConcurrency(cfg.Concurrency),
		harvest.WithBatchSize(cfg.BatchSize),
		harvest.WithBatchPause(cfg.BatchPause),
		harvest.WithState(state),
		harvest.WithStateStore(sdb),
		harvest.WithCriticalPolicy(harvest.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBackoff,
			Multiplier:  config.DefaultRetryMultiplier,
		}),
		harvest.WithForceRefresh(cfg.ForceRefresh),
		harvest.WithLogger(logger),
	)

	fmt.Printf("Harvesting %d work(s)...\n", len(requests))
	startTime := time.Now()

	summary, runErr := orchestrator.Run(ctx, requests)

	// Persist whatever finished, even when the run aborted early.
	// The save must outlive a cancelled run context.
	if err := sdb.SaveState(context.WithoutCancel(ctx), state); err != nil {
		logger.Error("failed to save crawl state", "error", err)
	}

	// Expired cache entries already read as misses; pruning just keeps
	// the database from growing across runs.
	if pruned, err := cache.Prune(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("page cache prune failed", "error", err)
	} else if pruned > 0 {
		logger.Debug("pruned expired cache entries", "count", pruned)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Harvest finished in %s\n\n", elapsed.Round(time.Millisecond))

	if err := outputReport(cfg, summary); err != nil {
		logger.Error("report failed", "error", err)
	}

	return runErr
}

// outputReport writes the run summary in the requested format.
func outputReport(cfg *config.Config, summary *harvest.Summary) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
		)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(summary)
	return err
}
