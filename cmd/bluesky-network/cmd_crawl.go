package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cholten99/bluesky-network/internal/bluesky"
	"github.com/cholten99/bluesky-network/internal/config"
	"github.com/cholten99/bluesky-network/internal/crawler"
	"github.com/cholten99/bluesky-network/internal/metrics"
	"github.com/cholten99/bluesky-network/internal/storage"
	"github.com/cholten99/bluesky-network/internal/version"
)

func runCrawl(cmd *cobra.Command, args []string) {
	if err := crawlRun(args[0]); err != nil {
		logrus.Errorf("Crawl run failed: %v", err)
		os.Exit(1)
	}
}

// crawlRun drives the whole pipeline for one seed. Resources are released
// through defers, so a failed run still closes the database cleanly.
func crawlRun(seedHandle string) error {
	logrus.Infof("bluesky-network v%s starting...", version.Version)

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if modeOverride != "" {
		if modeOverride != config.ModeFullRefresh && modeOverride != config.ModeAccumulate {
			return fmt.Errorf("invalid --mode %q: must be %q or %q",
				modeOverride, config.ModeFullRefresh, config.ModeAccumulate)
		}
		cfg.Mode = modeOverride
	}

	logrus.Infof("Configuration loaded: seed=%s, mode=%s, max_concurrent_fetches=%d",
		seedHandle, cfg.Mode, cfg.Bluesky.MaxConcurrentFetches)

	ctx := context.Background()

	// Initialize storage
	store, err := storage.NewStorage(ctx, cfg.DB.ConnString())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		store.Close()
		logrus.Info("Database connection closed")
	}()

	logrus.Infof("Database initialized: %s:%d/%s", cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName)

	// Initialize metrics tracker
	tracker := metrics.NewTracker()
	tracker.SetSeedHandle(seedHandle)

	// Metrics callback for crawler
	metricsCallback := func(profilesFetched, profilesFailed int, fetchTime time.Duration) {
		if profilesFetched > 0 {
			tracker.IncrementProfilesFetched()
		}
		if profilesFailed > 0 {
			tracker.IncrementProfilesFailed()
		}
		tracker.RecordFetchTime(fetchTime)
	}

	// Initialize crawler
	client := bluesky.NewClient(cfg.Bluesky)
	c := crawler.NewCrawler(client, cfg.Bluesky.MaxConcurrentFetches, metricsCallback)

	if cfg.Mode == config.ModeFullRefresh {
		if err := store.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset tables: %w", err)
		}
		logrus.Info("Tables truncated (full-refresh mode)")
	}

	batch, err := c.Crawl(ctx, seedHandle)
	if err != nil {
		// Seed fetches are mandatory; record the aborted run before bailing out
		if werr := tracker.WriteToFile(cfg.MetricsPath, "seed_failure"); werr != nil {
			logrus.Errorf("Failed to write metrics: %v", werr)
		}
		return err
	}

	for _, failure := range batch.Failures {
		logrus.Warnf("Profile fetch failed: %v", failure)
	}

	// A failed upsert rolls back its own batch only; the run carries on
	// to report generation and exits non-zero at the end.
	var runErr error

	accountsStored, err := store.UpsertAccounts(ctx, batch.Accounts)
	if err != nil {
		logrus.Errorf("Failed to store accounts: %v", err)
		runErr = err
	} else {
		tracker.AddAccountsStored(int(accountsStored))
		logrus.Infof("Stored %d accounts", accountsStored)
	}

	edgesStored, err := store.UpsertConnections(ctx, batch.Edges)
	if err != nil {
		logrus.Errorf("Failed to store connections: %v", err)
		runErr = err
	} else {
		tracker.AddEdgesStored(int(edgesStored))
		logrus.Infof("Stored %d connections", edgesStored)
	}

	if err := writeReports(ctx, cfg, store); err != nil {
		logrus.Errorf("Failed to write reports: %v", err)
		if runErr == nil {
			runErr = err
		}
	}

	logSummary(ctx, store, tracker)

	outcome := "completed"
	if runErr != nil {
		outcome = "store_failure"
	}
	if err := tracker.WriteToFile(cfg.MetricsPath, outcome); err != nil {
		logrus.Errorf("Failed to write metrics: %v", err)
	} else {
		logrus.Infof("Metrics written to %s", cfg.MetricsPath)
	}

	return runErr
}

// logSummary prints the end-of-run totals: stored counts, the
// following-count sum and timing.
func logSummary(ctx context.Context, store *storage.Storage, tracker *metrics.Tracker) {
	logrus.Info("Final stats: " + tracker.LogProgress())

	totalAccounts, err := store.CountAccounts(ctx)
	if err != nil {
		logrus.Errorf("Failed to count accounts: %v", err)
		return
	}
	totalFollowing, err := store.TotalFollowingCount(ctx)
	if err != nil {
		logrus.Errorf("Failed to sum following counts: %v", err)
		return
	}

	elapsed := time.Since(tracker.GetSnapshot().StartTime)

	logrus.Infof("Total accounts stored: %d", totalAccounts)
	logrus.Infof("Total sum of all following counts: %d", totalFollowing)
	logrus.Infof("Total execution time: %.2fs", elapsed.Seconds())
	if totalAccounts > 0 {
		logrus.Infof("Average time per account: %.2fs", elapsed.Seconds()/float64(totalAccounts))
	}
}
