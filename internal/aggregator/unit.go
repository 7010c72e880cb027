package aggregator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bighogz/insider-ingest/internal/logging"
	"github.com/bighogz/insider-ingest/internal/metrics"
	"github.com/bighogz/insider-ingest/internal/models"
	"github.com/bighogz/insider-ingest/internal/openinsider"
)

type Fetcher interface {
	ScreenerURL(unit models.WorkUnit) string
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Cache interface {
	Load(unit models.WorkUnit) (models.RecordSet, bool)
	Save(unit models.WorkUnit, set models.RecordSet) error
}

type Filter interface {
	Accepts(r models.Record) bool
}

// Processor turns one month into its filtered, deduplicated record set.
// Cache may be nil.
type Processor struct {
	Cache   Cache
	Fetcher Fetcher
	Filter  Filter
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Process serves the unit from a fresh cache entry when one exists and
// otherwise fetches, parses and filters it. A fetch that fails after
// retries or a page without a table yields an empty set and a nil error.
// Only cancellation and unparseable documents return an error.
func (p *Processor) Process(ctx context.Context, unit models.WorkUnit) (models.RecordSet, error) {
	ctx, span := tracer.Start(ctx, "Process")
	defer span.End()
	span.SetAttributes(attribute.String("unit", unit.String()))

	log := logging.OrDiscard(p.Logger).With("unit", unit.String())

	if p.Cache != nil {
		if set, ok := p.Cache.Load(unit); ok {
			log.Debug("cache hit", "records", set.Len())
			span.SetAttributes(attribute.Bool("cache_hit", true))
			p.Metrics.UnitDone(metrics.OutcomeCacheHit)
			return set, nil
		}
	}

	url := p.Fetcher.ScreenerURL(unit)
	body, err := p.Fetcher.Fetch(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, "canceled")
			return nil, ctxErr
		}
		log.Error("fetch failed, skipping month", "url", url, "error", err)
		span.RecordError(err)
		p.Metrics.UnitDone(metrics.OutcomeFailed)
		return models.NewRecordSet(), nil
	}

	rows, err := openinsider.Parse(ctx, bytes.NewReader(body))
	if errors.Is(err, openinsider.ErrNoTable) {
		log.Warn("no table found", "url", url)
		p.Metrics.UnitDone(metrics.OutcomeEmpty)
		return models.NewRecordSet(), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}

	set := models.NewRecordSet()
	rejected := 0
	for _, r := range rows {
		if !p.Filter.Accepts(r) {
			rejected++
			continue
		}
		set.Add(r)
	}
	p.Metrics.RecordsFiltered(len(rows)-rejected, rejected)
	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("records", set.Len()))

	if p.Cache != nil {
		if err := p.Cache.Save(unit, set); err != nil {
			log.Warn("cache write failed", "error", err)
		}
	}

	log.Info("month processed", "rows", len(rows), "rejected", rejected, "records", set.Len())
	p.Metrics.UnitDone(metrics.OutcomeFetched)
	return set, nil
}
