// internal/output/types.go
package output

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/osdlabs/chromepuppet/internal/portal"
)

// Format selects an output backend.
type Format string

const (
	FormatJSON       Format = "json"
	FormatCSV        Format = "csv"
	FormatExcel      Format = "excel"
	FormatSQLite     Format = "sqlite"
	FormatPostgreSQL Format = "postgres"
	FormatMySQL      Format = "mysql"
	FormatMongoDB    Format = "mongodb"
)

// ValidFormats lists every supported output format.
func ValidFormats() []Format {
	return []Format{
		FormatJSON, FormatCSV, FormatExcel,
		FormatSQLite, FormatPostgreSQL, FormatMySQL, FormatMongoDB,
	}
}

// Record is one flat output row: a swap outcome, a DNC submission, or
// a metric snapshot.
type Record map[string]interface{}

// Writer is the common sink interface.
type Writer interface {
	Write(records []Record) error
	Flush() error
	Close() error
}

// Columns returns the record's keys in stable order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// FromChange flattens a swap outcome into a record.
func FromChange(c portal.ChangeResult) Record {
	return Record{
		"campaign":    c.Campaign,
		"old_list_id": c.OldListID,
		"new_list_id": c.NewListID,
		"succeeded":   c.Succeeded,
		"reason":      c.Reason,
		"timestamp":   c.Timestamp.Format(time.RFC3339),
	}
}

// identifierRegex is the safe shape for table and column names used in
// generated SQL.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier rejects table/column names that cannot be safely
// interpolated into DDL.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier %q exceeds 63 characters", name)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}
