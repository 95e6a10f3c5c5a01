package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cholten99/bluesky-network/internal/config"
	"github.com/cholten99/bluesky-network/internal/storage"
)

func runReset(cmd *cobra.Command, args []string) {
	if err := resetRun(); err != nil {
		logrus.Errorf("Reset failed: %v", err)
		os.Exit(1)
	}
}

func resetRun() error {
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

	if err := store.Reset(ctx); err != nil {
		return err
	}

	logrus.Info("All accounts and connections deleted, identity numbering restarted")
	return nil
}
