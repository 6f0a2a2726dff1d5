package db

import (
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version. Bump it together with a
// migration step below when the schema changes.
const schemaVersion = 1

// runMigrations brings an existing index up to schemaVersion
func (db *DB) runMigrations() error {
	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("index schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	// Version 1 is the initial schema created by initSchema

	if _, err := db.conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}
