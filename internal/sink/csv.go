package sink

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/bighogz/insider-ingest/internal/models"
)

func writeCSV(_ context.Context, path string, records []models.Record) error {
	return replaceFile(path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return err
		}
		defer f.Close()

		w := csv.NewWriter(f)
		if err := w.Write(models.Columns); err != nil {
			return err
		}
		for _, r := range records {
			if err := w.Write(r.Fields()); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		return f.Close()
	})
}
