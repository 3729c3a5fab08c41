// internal/output/mysql.go
package output

import (
	_ "github.com/go-sql-driver/mysql"
)

// MySQLWriter stores records in a MySQL table.
type MySQLWriter struct {
	*sqlWriter
}

// NewMySQLWriter connects using a go-sql-driver DSN.
func NewMySQLWriter(dsn, table string) (*MySQLWriter, error) {
	w, err := newSQLWriter("mysql", dsn, table,
		func(int) string { return "?" },
		"TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
	if err != nil {
		return nil, err
	}
	return &MySQLWriter{sqlWriter: w}, nil
}
