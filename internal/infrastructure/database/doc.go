// Package database provides SQLite connectivity for Garden Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Versioned schema migrations read from an fs.FS
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    return err
//	}
//
// Migration files are additive: new columns are NULLABLE or carry a
// DEFAULT, and every .up.sql should have a .down.sql twin.
package database
