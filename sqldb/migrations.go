package sqldb

import (
	"database/sql"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// migration is a schema change, applied once in version order
type migration struct {
	Version string
	Up      string
}

var migrations = []migration{
	{
		Version: "1.0.0",
		Up: `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS books (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    notes TEXT,
    file_url TEXT,
    date_added TEXT NOT NULL
);
`,
	},
	{
		Version: "1.1.0",
		Up: `
CREATE INDEX IF NOT EXISTS idx_books_date_added ON books(date_added);
`,
	},
}

// CurrentSchemaVersion is the newest migration's version
func CurrentSchemaVersion() string {
	return migrations[len(migrations)-1].Version
}

func schemaVersion(db *sql.DB) (*semver.Version, error) {
	current := semver.MustParse("0.0.0")
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return current, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Failed to check schema_version table")
	}

	rows, err := db.Query("SELECT version FROM schema_version")
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read schema_version")
	}
	defer rows.Close()
	for rows.Next() {
		var versionStr string
		if err := rows.Scan(&versionStr); err != nil {
			return nil, err
		}
		version, err := semver.NewVersion(versionStr)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid schema version %q", versionStr)
		}
		if current.LessThan(version) {
			current = version
		}
	}
	return current, rows.Err()
}

// applyMigrations runs every migration newer than the database's schema version, each in its own transaction
func applyMigrations(db *sql.DB) error {
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		version, err := semver.NewVersion(m.Version)
		if err != nil {
			return errors.Wrapf(err, "Invalid migration version %q", m.Version)
		}
		if !current.LessThan(version) {
			continue
		}
		if err := inTx(db, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.Up); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version)
			return err
		}); err != nil {
			return errors.Wrapf(err, "Failed to apply migration %s", m.Version)
		}
	}
	return nil
}
