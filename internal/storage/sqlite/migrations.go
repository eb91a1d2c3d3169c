package sqlite

import "database/sql"

// schema sets up the single key/value table the client persists. These
// statements run on startup to ensure the table exists.
const schema = `
CREATE TABLE IF NOT EXISTS client_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
