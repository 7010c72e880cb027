package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bighogz/insider-ingest/internal/config"
)

type cliFlags struct {
	configPath string
	startYear  int
	startMonth int
	workers    int
	format     string
	noCache    bool
	noProgress bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f cliFlags
	cmd := &cobra.Command{
		Use:          "scan",
		Short:        "Collect insider transactions from the openinsider screener, month by month.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, f, cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, runOptions{
				noProgress: f.noProgress,
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "config.yaml", "path to the YAML config file")
	fl.IntVar(&f.startYear, "start-year", 0, "first year to collect (overrides scraping.start_year)")
	fl.IntVar(&f.startMonth, "start-month", 0, "first month to collect, 1-12 (overrides scraping.start_month)")
	fl.IntVar(&f.workers, "workers", 0, "months fetched in parallel (overrides scraping.max_workers)")
	fl.StringVar(&f.format, "format", "", "output format: csv, parquet, xlsx or sqlite")
	fl.BoolVar(&f.noCache, "no-cache", false, "ignore and do not write the per-month cache")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// applyFlags layers explicitly set flags over the loaded config and
// validates the result again.
func applyFlags(cmd *cobra.Command, f cliFlags, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("start-year") {
		cfg.Scraping.StartYear = f.startYear
	}
	if fl.Changed("start-month") {
		cfg.Scraping.StartMonth = f.startMonth
	}
	if fl.Changed("workers") {
		cfg.Scraping.MaxWorkers = f.workers
	}
	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}
