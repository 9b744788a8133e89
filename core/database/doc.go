// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure SQLite or MySQL connections
// for the manifest catalog based on the application's configuration.
//
// # Connect
//
// Connect opens the database selected by Config.Driver. SQLite is the
// default and needs no server; MySQL lets several machines share a catalog.
//
// # Schema Inspection
//
// Columns lists a table's columns through the dialect's migrator, and
// MissingColumns compares them with an expected set. The catalog uses it to
// verify that manifest_records has the expected shape.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return fmt.Errorf("catalog unavailable: %w", err)
//	}
//
//	missing, err := database.MissingColumns(db, "manifest_records", []string{"digest", "size"})
package database
