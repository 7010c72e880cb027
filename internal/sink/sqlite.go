package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/bighogz/insider-ingest/internal/models"
)

const tableName = "insider_trades"

func quoted(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = `"` + c + `"`
	}
	return out
}

// writeSQLite recreates the table on every run so the file mirrors the
// latest aggregate.
func writeSQLite(ctx context.Context, path string, records []models.Record) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	cols := quoted(models.Columns)
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " TEXT NOT NULL"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+tableName); err != nil {
		return err
	}
	create := fmt.Sprintf(`CREATE TABLE %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		%s
	)`, tableName, strings.Join(defs, ",\n\t\t"))
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		tableName, strings.Join(cols, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		fields := r.Fields()
		args := make([]any, len(fields))
		for i, f := range fields {
			args[i] = f
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
