package openinsider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bighogz/insider-ingest/internal/models"
)

// ErrNoTable means the page carried no results table. A sparse month looks
// exactly like this, so callers treat it as an empty result.
var ErrNoTable = errors.New("openinsider: no table found")

// rowWidth is the screener's column count: a selection box, the twelve
// record fields, then four return columns.
const rowWidth = 17

// Parse extracts records from a screener page. Rows whose cell count is not
// rowWidth are skipped.
func Parse(ctx context.Context, r io.Reader) ([]models.Record, error) {
	_, span := tracer.Start(ctx, "Parse")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("openinsider: parse html: %w", err)
	}
	table := doc.Find("table.tinytable").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var (
		records []models.Record
		skipped int
	)
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != rowWidth {
			skipped++
			return
		}
		f := make([]string, 0, len(models.Columns))
		cells.Each(func(i int, td *goquery.Selection) {
			if i == 0 || i > len(models.Columns) {
				return
			}
			f = append(f, strings.TrimSpace(td.Text()))
		})
		rec, err := models.RecordFromFields(f)
		if err != nil {
			skipped++
			return
		}
		records = append(records, rec)
	})

	span.SetAttributes(
		attribute.Int("rows", len(records)),
		attribute.Int("skipped", skipped))
	return records, nil
}
