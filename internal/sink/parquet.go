package sink

import (
	"context"

	"github.com/parquet-go/parquet-go"

	"github.com/bighogz/insider-ingest/internal/models"
)

// Every column is a string; the schema comes from the Record struct tags.
func writeParquet(_ context.Context, path string, records []models.Record) error {
	return replaceFile(path, func(tmp string) error {
		return parquet.WriteFile(tmp, records)
	})
}
