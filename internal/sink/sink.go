// Package sink materializes the aggregated records in one of the
// supported tabular formats.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bighogz/insider-ingest/internal/models"
)

var tracer = otel.Tracer("insider-ingest/sink")

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatXLSX    = "xlsx"
	FormatSQLite  = "sqlite"
)

// Formats lists every format Write accepts.
var Formats = []string{FormatCSV, FormatParquet, FormatXLSX, FormatSQLite}

var ErrUnknownFormat = errors.New("sink: unknown format")

type Options struct {
	Dir      string
	Filename string
	Format   string
}

func (o Options) Path() string {
	return filepath.Join(o.Dir, o.Filename)
}

type writerFunc func(ctx context.Context, path string, records []models.Record) error

var writers = map[string]writerFunc{
	FormatCSV:     writeCSV,
	FormatParquet: writeParquet,
	FormatXLSX:    writeXLSX,
	FormatSQLite:  writeSQLite,
}

// Prepare checks that the output location is usable before any work is
// scheduled: the format is known and the directory can be written.
func Prepare(opts Options) error {
	if _, ok := writers[strings.ToLower(opts.Format)]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownFormat, opts.Format)
	}
	if strings.TrimSpace(opts.Filename) == "" {
		return errors.New("sink: output filename is empty")
	}
	dir := filepath.Dir(opts.Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("sink: output dir: %w", err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("sink: output dir not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// Write stores records at opts.Path() in the fixed column order and
// returns the path written.
func Write(ctx context.Context, opts Options, records []models.Record) (string, error) {
	ctx, span := tracer.Start(ctx, "Write")
	defer span.End()

	format := strings.ToLower(opts.Format)
	w, ok := writers[format]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, opts.Format)
	}
	path := opts.Path()
	span.SetAttributes(
		attribute.String("format", format),
		attribute.String("path", path),
		attribute.Int("records", len(records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("sink: %w", err)
	}
	if err := w(ctx, path, records); err != nil {
		return "", fmt.Errorf("sink: write %s: %w", format, err)
	}
	return path, nil
}

// replaceFile writes through a temp file in the target directory and
// renames it over path once write succeeds.
func replaceFile(path string, write func(tmp string) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	f.Close()
	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
