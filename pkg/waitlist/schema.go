package waitlist

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the waitlist tables. created_at is stored as fixed-width
// UTC text so lexical order matches time order on every driver.
const Schema = `
CREATE TABLE IF NOT EXISTS waitlist_entries (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE COLLATE NOCASE,
    city TEXT NOT NULL,
    bike_ownership TEXT NOT NULL CHECK (bike_ownership IN ('yes', 'no', 'planning')),
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_waitlist_created_at ON waitlist_entries(created_at);
CREATE INDEX IF NOT EXISTS idx_waitlist_city ON waitlist_entries(city COLLATE NOCASE);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertEntry = `
INSERT INTO waitlist_entries (id, name, email, city, bike_ownership, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`

const selectEntries = `SELECT id, name, email, city, bike_ownership, created_at FROM waitlist_entries`
