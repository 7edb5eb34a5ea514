// Package dbopen opens the SQLite file behind the extraction event log.
//
// The modernc.org/sqlite driver is registered here. Pragmas travel in the
// DSN as _pragma parameters, so the driver applies them to every pooled
// connection, not only the first one:
//
//	journal_mode(WAL) foreign_keys(1) busy_timeout(10000) synchronous(NORMAL)
//
// Schema DDL given with WithSchema runs once Open has a connection and must
// be idempotent; the event log passes observability.Schema.
package dbopen

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	memoryPath = ":memory:"
)

type settings struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
	schemas     []string
}

// Option adjusts Open.
type Option func(*settings)

// WithBusyTimeout replaces the 10s lock wait, in milliseconds.
func WithBusyTimeout(ms int) Option { return func(s *settings) { s.busyTimeout = ms } }

// WithSynchronous replaces synchronous=NORMAL, e.g. with FULL.
func WithSynchronous(mode string) Option { return func(s *settings) { s.synchronous = mode } }

// WithMkdirAll creates the directory holding the database file.
func WithMkdirAll() Option { return func(s *settings) { s.mkdirAll = true } }

// WithSchema adds DDL to run after opening.
func WithSchema(ddl string) Option {
	return func(s *settings) { s.schemas = append(s.schemas, ddl) }
}

// dsn appends the pragmas to path as modernc _pragma parameters.
func (s *settings) dsn(path string) string {
	q := url.Values{"_pragma": {
		"journal_mode(WAL)",
		"foreign_keys(1)",
		"busy_timeout(" + strconv.Itoa(s.busyTimeout) + ")",
		"synchronous(" + s.synchronous + ")",
	}}
	return path + "?" + q.Encode()
}

// Open opens the database at path, creating the file if needed, and runs
// the schema.
func Open(path string, opts ...Option) (*sql.DB, error) {
	s := settings{busyTimeout: 10_000, synchronous: "NORMAL"}
	for _, opt := range opts {
		opt(&s)
	}

	if s.mkdirAll && path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: create directory for %s: %w", path, err)
		}
	}

	db, err := sql.Open(driverName, s.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("dbopen: %s: %w", path, err)
	}
	// Ping forces a first connection, which is where bad pragmas surface.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: %s: %w", path, err)
	}
	for i, ddl := range s.schemas {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: %s: schema %d: %w", path, i+1, err)
		}
	}
	return db, nil
}

// OpenMemory opens a private in-memory database closed on test cleanup.
// Each ":memory:" connection is its own database, so the pool holds one.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(memoryPath, opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
