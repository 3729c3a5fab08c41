// internal/output/sql.go
package output

import (
	"database/sql"
	"fmt"
	"strings"
)

// sqlWriter is the shared engine behind the SQLite, PostgreSQL and
// MySQL writers. The table is created on first write with one TEXT
// column per record key plus a created_at timestamp.
type sqlWriter struct {
	db          *sql.DB
	table       string
	placeholder func(i int) string
	timestamp   string
	header      []string
}

func newSQLWriter(driver, dsn, table string, placeholder func(int) string, timestampDDL string) (*sqlWriter, error) {
	if table == "" {
		table = "records"
	}
	if err := ValidateIdentifier(table); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", driver, err)
	}

	return &sqlWriter{
		db:          db,
		table:       table,
		placeholder: placeholder,
		timestamp:   timestampDDL,
	}, nil
}

func (w *sqlWriter) ensureTable(r Record) error {
	if w.header != nil {
		return nil
	}

	cols := r.Columns()
	for _, col := range cols {
		if err := ValidateIdentifier(col); err != nil {
			return fmt.Errorf("invalid column name: %w", err)
		}
	}

	defs := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		defs = append(defs, fmt.Sprintf("%s TEXT", col))
	}
	defs = append(defs, "created_at "+w.timestamp)

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", w.table, strings.Join(defs, ", "))
	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", w.table, err)
	}

	w.header = cols
	return nil
}

// Write inserts the batch inside one transaction.
func (w *sqlWriter) Write(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := w.ensureTable(records[0]); err != nil {
		return err
	}

	marks := make([]string, len(w.header))
	for i := range w.header {
		marks[i] = w.placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.table, strings.Join(w.header, ", "), strings.Join(marks, ", "))

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, r := range records {
		args := make([]interface{}, len(w.header))
		for i, col := range w.header {
			if v, ok := r[col]; ok && v != nil {
				args[i] = fmt.Sprintf("%v", v)
			}
		}
		if _, err := tx.Exec(stmt, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Flush is a no-op for transactional writers.
func (w *sqlWriter) Flush() error { return nil }

// Close releases the connection pool.
func (w *sqlWriter) Close() error {
	if w.db == nil {
		return nil
	}
	err := w.db.Close()
	w.db = nil
	return err
}
