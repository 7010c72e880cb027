package sink

import (
	"context"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/bighogz/insider-ingest/internal/models"
)

const sheetName = "insider_trades"

func writeXLSX(_ context.Context, path string, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	header := models.Columns
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		fields := r.Fields()
		if err := f.SetSheetRow(sheetName, cell, &fields); err != nil {
			return err
		}
	}
	// SaveAs insists on a workbook extension, so the temp file is filled
	// through Write instead.
	return replaceFile(path, func(tmp string) error {
		out, err := os.Create(tmp)
		if err != nil {
			return err
		}
		if err := f.Write(out); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}
