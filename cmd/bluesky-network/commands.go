package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cholten99/bluesky-network/internal/version"
)

// --- Global Command Variables ---
var (
	configPath   string
	modeOverride string

	rootCmd = &cobra.Command{
		Use:   "bluesky-network",
		Short: "A one-hop crawler for the Bluesky follow graph",
		Long: `bluesky-network crawls a single seed account on Bluesky, fetches the
profile of every account it follows, and stores the accounts and follow
edges in PostgreSQL, deduplicating on repeated runs.`,
	}

	crawlCmd = &cobra.Command{
		Use:   "crawl [handle]",
		Short: "Crawl one seed account and store its follow graph",
		Args:  cobra.ExactArgs(1),
		Run:   runCrawl, // Defined in cmd_crawl.go
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Regenerate the report files from current storage",
		Run:   runReport, // Defined in cmd_report.go
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "DANGER: Deletes all stored accounts and connections",
		Run:   runReset, // Defined in cmd_reset.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the bluesky-network version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Version)
		},
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json",
		"Path to the JSON configuration file")

	crawlCmd.Flags().StringVar(&modeOverride, "mode", "",
		`Run mode override: "full-refresh" truncates both tables before crawling, "accumulate" merges into existing state`)

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
