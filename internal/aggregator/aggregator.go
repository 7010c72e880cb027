// Package aggregator runs the monthly work units and merges their records.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/bighogz/insider-ingest/internal/logging"
	"github.com/bighogz/insider-ingest/internal/metrics"
	"github.com/bighogz/insider-ingest/internal/models"
	"github.com/bighogz/insider-ingest/internal/progress"
)

var tracer = otel.Tracer("insider-ingest/aggregator")

type UnitProcessor interface {
	Process(ctx context.Context, unit models.WorkUnit) (models.RecordSet, error)
}

type RunOptions struct {
	StartYear  int
	StartMonth time.Month
	Now        time.Time
	Workers    int
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// UnitFailure is a unit whose processing returned an error or panicked.
// It contributes no records.
type UnitFailure struct {
	Unit models.WorkUnit
	Err  error
}

func (f UnitFailure) Error() string {
	return fmt.Sprintf("unit %s: %v", f.Unit, f.Err)
}

func (f UnitFailure) Unwrap() error { return f.Err }

type Result struct {
	Records  []models.Record
	Units    int
	Failures []UnitFailure
}

type unitResult struct {
	index   int
	records []models.Record
}

// Run processes every month from the start through opts.Now with at most
// opts.Workers in flight. Units are submitted in ascending order and a
// failing unit never stops its siblings. Records from different units are
// not deduplicated against each other.
//
// The returned error is non-nil only when ctx ends; the Result still
// holds whatever finished.
func Run(ctx context.Context, opts RunOptions, proc UnitProcessor, rep progress.Reporter) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	log := logging.OrDiscard(opts.Logger)
	if rep == nil {
		rep = progress.Nop{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	units := models.Units(opts.StartYear, opts.StartMonth, now)
	span.SetAttributes(attribute.Int("units", len(units)), attribute.Int("workers", workers))
	log.Info("starting run", "units", len(units), "workers", workers,
		"from", fmt.Sprintf("%04d-%02d", opts.StartYear, int(opts.StartMonth)))

	rep.Start(len(units))
	defer rep.Done()

	var (
		mu       sync.Mutex
		results  []unitResult
		failures []UnitFailure
	)
	fail := func(unit models.WorkUnit, err error) {
		log.Error("unit failed", "unit", unit.String(), "error", err)
		mu.Lock()
		failures = append(failures, UnitFailure{Unit: unit, Err: err})
		mu.Unlock()
		opts.Metrics.UnitDone(metrics.OutcomeFailed)
		rep.Increment()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			fail(unit, err)
			continue
		}
		g.Go(func() error {
			set, err := safeProcess(ctx, proc, unit)
			if err != nil {
				fail(unit, err)
				return nil
			}
			records := set.Slice()
			mu.Lock()
			results = append(results, unitResult{index: i, records: records})
			mu.Unlock()
			rep.Increment()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })
	sort.Slice(failures, func(a, b int) bool {
		return failures[a].Unit.Start().Before(failures[b].Unit.Start())
	})

	res := Result{Units: len(units), Failures: failures}
	for _, r := range results {
		res.Records = append(res.Records, r.records...)
	}
	span.SetAttributes(attribute.Int("records", len(res.Records)), attribute.Int("failures", len(failures)))
	log.Info("run finished", "records", len(res.Records), "failed_units", len(failures))

	return res, ctx.Err()
}

func safeProcess(ctx context.Context, proc UnitProcessor, unit models.WorkUnit) (set models.RecordSet, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return proc.Process(ctx, unit)
}
