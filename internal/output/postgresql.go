// internal/output/postgresql.go
package output

import (
	"fmt"

	_ "github.com/lib/pq"
)

// PostgreSQLWriter stores records in a PostgreSQL table.
type PostgreSQLWriter struct {
	*sqlWriter
}

// NewPostgreSQLWriter connects using a libpq DSN.
func NewPostgreSQLWriter(dsn, table string) (*PostgreSQLWriter, error) {
	w, err := newSQLWriter("postgres", dsn, table,
		func(i int) string { return fmt.Sprintf("$%d", i) },
		"TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
	if err != nil {
		return nil, err
	}
	return &PostgreSQLWriter{sqlWriter: w}, nil
}
