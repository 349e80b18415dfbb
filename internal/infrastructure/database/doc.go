// Package database provides SQLite storage for the Plugwise bridge.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Versioned schema migrations loaded from an fs.FS
//   - Connection pooling and lifecycle management
//
// The bridge stores one power calibration per metering node so that energy
// readings can be decoded immediately after a restart, before the node has
// answered a fresh calibration request.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql, and are embedded by the migrations package.
package database
