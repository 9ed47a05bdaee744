// Package database handles the catalog database connection and schema inspection.
//
// It wraps GORM and selects the dialect from the configuration: MySQL for the
// shared production catalog, SQLite for local runs and tests.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the verify command check that the
// catalog table has the columns the job writes before reconciling rows.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Catalog disabled", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "processed_files", []string{"path"})
package database
