package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"FeedForge/internal/app"
	"FeedForge/internal/config"
	"FeedForge/internal/logging"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	flagConfig string
	flagFull   bool
	flagSource string
	flagLimit  int
)

var rootCmd = &cobra.Command{
	Use:   "feedforge",
	Short: "Generate RSS feeds for blogs without native syndication",
	Long: "feedforge scrapes configured blog listing pages (plain, URL-paginated, " +
		"or JavaScript load-more), merges the posts with a per-source cache, and " +
		"writes deduplicated RSS feeds.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch all configured sources and rewrite their feeds",
	RunE:  runAction,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent run outcomes from the archive",
	RunE:  historyAction,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("feedforge %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: $FEEDFORGE_CONFIG)")
	runCmd.Flags().BoolVar(&flagFull, "full", false, "re-walk all pagination instead of an incremental update")
	runCmd.Flags().StringVar(&flagSource, "source", "", "run a single source by name")
	historyCmd.Flags().StringVar(&flagSource, "source", "", "filter history by source name")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(runCmd, historyCmd, versionCmd)
}

func loadConfig() (config.Config, error) {
	// A local .env may carry the FEEDFORGE_* overrides.
	_ = godotenv.Load()

	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load(), nil
}

func runAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = application.Close() }()

	summary, err := application.Run(cmd.Context(), flagFull, flagSource)
	if err != nil {
		return err
	}

	for _, outcome := range summary.Outcomes {
		if outcome.Failed() {
			fmt.Printf("%-24s FAILED  %s\n", outcome.Source, outcome.Reason())
			continue
		}
		note := ""
		if outcome.LimitHit {
			note = "  (pagination ceiling hit)"
		}
		fmt.Printf("%-24s ok      %d posts, %d new%s\n", outcome.Source, len(outcome.Posts), outcome.Added, note)
	}

	// Partial failures stay visible above without failing the process;
	// only a run where every source failed exits non-zero.
	if summary.AllFailed() {
		return fmt.Errorf("all %d sources failed", len(summary.Outcomes))
	}
	return nil
}

func historyAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg, logging.New(cfg.Logging.Level))
	if err != nil {
		return err
	}
	defer func() { _ = application.Close() }()

	records, err := application.RecentRuns(cmd.Context(), flagSource, flagLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no runs recorded yet")
		return nil
	}

	for _, rec := range records {
		status := rec.Status
		if rec.LimitHit {
			status += "+ceiling"
		}
		fmt.Printf("%s  %-24s %-10s %4d posts (%d new)  %s\n",
			rec.FinishedAt.Format("2006-01-02 15:04"), rec.Source, status, rec.PostsTotal, rec.PostsAdded, rec.Reason)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
