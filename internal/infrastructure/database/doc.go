// Package database opens and migrates the bridge's SQLite database.
//
// The database holds the persistent key/value store (item records and
// identity slots) plus the activity log. WAL mode keeps reads moving
// during writes; a single pooled connection sidesteps SQLite's
// single-writer lock between our own goroutines; the busy timeout
// covers everything else.
//
// Schema changes ship as embedded migrations, applied at startup:
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or carry a
// default, and every .up.sql has a .down.sql twin so MigrateDown can
// unwind the latest one during development.
//
// All queries use parameterised statements. The database file is
// created with owner-only permissions.
package database
