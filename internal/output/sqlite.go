// internal/output/sqlite.go
package output

import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteWriter stores records in a local SQLite database file.
type SQLiteWriter struct {
	*sqlWriter
}

// NewSQLiteWriter opens (or creates) the database at dsn.
func NewSQLiteWriter(dsn, table string) (*SQLiteWriter, error) {
	w, err := newSQLWriter("sqlite3", dsn, table,
		func(int) string { return "?" },
		"DATETIME DEFAULT CURRENT_TIMESTAMP")
	if err != nil {
		return nil, err
	}
	return &SQLiteWriter{sqlWriter: w}, nil
}
