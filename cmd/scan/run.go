package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bighogz/insider-ingest/internal/aggregator"
	"github.com/bighogz/insider-ingest/internal/cache"
	"github.com/bighogz/insider-ingest/internal/config"
	"github.com/bighogz/insider-ingest/internal/filter"
	"github.com/bighogz/insider-ingest/internal/httpclient"
	"github.com/bighogz/insider-ingest/internal/logging"
	"github.com/bighogz/insider-ingest/internal/metrics"
	"github.com/bighogz/insider-ingest/internal/openinsider"
	"github.com/bighogz/insider-ingest/internal/progress"
	"github.com/bighogz/insider-ingest/internal/sink"
	"github.com/bighogz/insider-ingest/internal/telemetry"
	"github.com/bighogz/insider-ingest/internal/universe"
)

type runOptions struct {
	noProgress bool
	now        func() time.Time
	stdout     io.Writer
	stderr     io.Writer
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) error {
	started := time.Now()
	now := time.Now
	if opts.now != nil {
		now = opts.now
	}
	runID := uuid.NewString()

	logger, closer, err := logging.New(cfg.Logging, opts.stderr)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()
	logger = logger.With("run_id", runID)

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		Stdout:      cfg.Telemetry.Stdout,
		Writer:      opts.stderr,
		ServiceName: "insider-ingest",
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	out := sink.Options{
		Dir:      cfg.Output.Directory,
		Filename: cfg.Output.Filename,
		Format:   cfg.Output.Format,
	}
	if err := sink.Prepare(out); err != nil {
		return err
	}

	m := metrics.New()
	client := openinsider.New(openinsider.Options{
		BaseURL:   cfg.Scraping.BaseURL,
		UserAgent: cfg.Scraping.UserAgent,
		Timeout:   cfg.Scraping.RequestTimeout(),
		Retry: openinsider.RetryPolicy{
			Attempts:  cfg.Scraping.RetryAttempts,
			BaseDelay: cfg.Scraping.RetryBaseDelay,
		},
		RequestsPerSecond: cfg.Scraping.RequestsPerSecond,
	}, logger, m)

	criteria, err := buildCriteria(ctx, cfg)
	if err != nil {
		return err
	}

	proc := &aggregator.Processor{
		Cache: cache.New(cache.Options{
			Enabled: cfg.Cache.Enabled,
			Dir:     cfg.Cache.Directory,
			MaxAge:  cfg.Cache.CacheMaxAge(),
		}, logger),
		Fetcher: client,
		Filter:  filter.New(criteria, logger),
		Logger:  logger,
		Metrics: m,
	}

	var rep progress.Reporter = progress.Nop{}
	if !opts.noProgress {
		rep = progress.NewBar(opts.stderr, "Scraping months")
	}

	res, runErr := aggregator.Run(ctx, aggregator.RunOptions{
		StartYear:  cfg.Scraping.StartYear,
		StartMonth: time.Month(cfg.Scraping.StartMonth),
		Now:        now(),
		Workers:    cfg.Scraping.MaxWorkers,
		Logger:     logger,
		Metrics:    m,
	}, proc, rep)
	if runErr != nil {
		logger.Warn("run interrupted, writing partial results", "error", runErr)
	}

	path, err := sink.Write(context.WithoutCancel(ctx), out, res.Records)
	if err != nil {
		return err
	}
	logger.Info("saved", "path", path, "records", len(res.Records))

	elapsed := time.Since(started)
	m.RunFinished(elapsed, len(res.Records))
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}

	progress.PrintSummary(opts.stdout, progress.Summary{
		RunID:    runID,
		Units:    res.Units,
		Failed:   len(res.Failures),
		Records:  len(res.Records),
		Output:   path,
		Duration: elapsed,
	})
	return runErr
}

// buildCriteria turns the filter config into criteria, widening the
// inclusion list with the S&P 500 members when asked to.
func buildCriteria(ctx context.Context, cfg *config.Config) (filter.Criteria, error) {
	f := cfg.Filters
	c := filter.Criteria{
		TransactionTypes:    f.TransactionTypes,
		ExcludeCompanies:    f.ExcludeCompanies,
		IncludeCompanies:    f.IncludeCompanies,
		MinTransactionValue: f.MinTransactionValue,
		MinSharesTraded:     f.MinSharesTraded,
	}
	if !f.IncludeSp500 {
		return c, nil
	}
	hc := httpclient.New(httpclient.Options{
		Timeout:   cfg.Scraping.RequestTimeout(),
		UserAgent: cfg.Scraping.UserAgent,
	})
	companies, err := universe.Load(ctx, hc, f.Sp500URL)
	if err != nil {
		return c, fmt.Errorf("failed to load S&P 500 constituents: %w", err)
	}
	c.IncludeCompanies = append(append([]string{}, c.IncludeCompanies...), universe.Symbols(companies)...)
	return c, nil
}
