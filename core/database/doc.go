// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL, PostgreSQL or SQLite connections from the
// application's configuration. SQLite goes through the pure-Go modernc driver,
// which is also what the package tests use as an in-memory store.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the migrate command verify that the
// snapshot tables carry the columns the ranking queries rely on.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "character_snapshots", []string{"score", "damage"})
package database
