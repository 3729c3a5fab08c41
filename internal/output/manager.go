// internal/output/manager.go
package output

import (
	"fmt"

	"github.com/osdlabs/chromepuppet/internal/config"
)

// NewWriter builds the writer selected by the output configuration.
// File formats need cfg.File set; database formats need cfg.Database.
func NewWriter(cfg *config.OutputConfig) (Writer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("output configuration is required")
	}

	switch Format(cfg.Format) {
	case FormatJSON:
		return NewJSONWriter(cfg.File)
	case FormatCSV:
		return NewCSVWriter(cfg.File)
	case FormatExcel:
		return NewExcelWriter(cfg.File)
	case FormatSQLite:
		db, err := databaseSettings(cfg)
		if err != nil {
			return nil, err
		}
		return NewSQLiteWriter(db.DSN, db.Table)
	case FormatPostgreSQL:
		db, err := databaseSettings(cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgreSQLWriter(db.DSN, db.Table)
	case FormatMySQL:
		db, err := databaseSettings(cfg)
		if err != nil {
			return nil, err
		}
		return NewMySQLWriter(db.DSN, db.Table)
	case FormatMongoDB:
		db, err := databaseSettings(cfg)
		if err != nil {
			return nil, err
		}
		return NewMongoDBWriter(db.DSN, db.Database, db.Table)
	default:
		return nil, fmt.Errorf("unsupported output format %q", cfg.Format)
	}
}

func databaseSettings(cfg *config.OutputConfig) (*config.DatabaseConfig, error) {
	if cfg.Database == nil || cfg.Database.DSN == "" {
		return nil, fmt.Errorf("%s output requires a database DSN", cfg.Format)
	}
	return cfg.Database, nil
}
