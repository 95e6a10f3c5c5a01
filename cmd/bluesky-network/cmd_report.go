package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cholten99/bluesky-network/internal/config"
	"github.com/cholten99/bluesky-network/internal/report"
	"github.com/cholten99/bluesky-network/internal/storage"
)

func runReport(cmd *cobra.Command, args []string) {
	if err := reportRun(); err != nil {
		logrus.Errorf("Report run failed: %v", err)
		os.Exit(1)
	}
}

// reportRun regenerates both report files from whatever is stored,
// without crawling.
func reportRun() error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	store, err := storage.NewStorage(ctx, cfg.DB.ConnString())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	return writeReports(ctx, cfg, store)
}

// writeReports dumps both tables to their configured report files
func writeReports(ctx context.Context, cfg *config.Config, store *storage.Storage) error {
	accounts, connections, err := store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored graph: %w", err)
	}

	if err := report.WriteAccounts(cfg.AccountsReportPath, accounts); err != nil {
		return err
	}
	if err := report.WriteConnections(cfg.ConnectionsReportPath, connections); err != nil {
		return err
	}

	logrus.Infof("Reports written: %s (%d rows), %s (%d rows)",
		cfg.AccountsReportPath, len(accounts), cfg.ConnectionsReportPath, len(connections))
	return nil
}
