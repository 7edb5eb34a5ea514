package observability

import "database/sql"

// Schema is the DDL of the extraction event store. Call Init(db) to apply
// it, or pass it to dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS extraction_events (
    event_id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    media_type TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    sha256 TEXT NOT NULL,
    tier TEXT NOT NULL DEFAULT '',
    failure TEXT NOT NULL DEFAULT '',
    warnings INTEGER NOT NULL DEFAULT 0,
    chars INTEGER NOT NULL DEFAULT 0,
    pages INTEGER NOT NULL DEFAULT 0,
    ocr_pages INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    transport TEXT NOT NULL DEFAULT '',
    request_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extraction_events_created
    ON extraction_events(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_extraction_events_failure
    ON extraction_events(failure, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_extraction_events_sha256
    ON extraction_events(sha256);
`

// Init applies the event store schema to the given database.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
