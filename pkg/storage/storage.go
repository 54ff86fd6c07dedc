// Package storage persists the last successfully fetched record snapshot per
// collection, so the CLI can filter and facet without hitting the remote
// store on every invocation.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stadtimpuls/kompass/pkg/records"
)

// ErrNoSnapshot is returned when a collection has never been fetched.
var ErrNoSnapshot = errors.New("no snapshot for collection, run fetch first")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  collection  TEXT PRIMARY KEY,
  fetched_at  DATETIME NOT NULL,
  payload     TEXT NOT NULL
);
	`); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveSnapshot replaces the stored snapshot for one collection with the given
// normalized records.
func (d *DB) SaveSnapshot(ctx context.Context, collection string, fetchedAt time.Time, recs []records.Record) error {
	payload, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `
INSERT INTO snapshots(collection, fetched_at, payload) VALUES(?,?,?)
ON CONFLICT(collection) DO UPDATE SET fetched_at=excluded.fetched_at, payload=excluded.payload`,
		collection, fetchedAt.UTC(), string(payload))
	return err
}

// LoadSnapshot returns the stored records and fetch time for one collection.
func (d *DB) LoadSnapshot(ctx context.Context, collection string) ([]records.Record, time.Time, error) {
	var (
		fetchedAt time.Time
		payload   string
	)
	err := d.sql.QueryRowContext(ctx,
		"SELECT fetched_at, payload FROM snapshots WHERE collection = ?", collection).
		Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var recs []records.Record
	if err := json.Unmarshal([]byte(payload), &recs); err != nil {
		return nil, time.Time{}, err
	}
	// SearchText is derived and not serialized; rebuild it.
	for i := range recs {
		recs[i].SearchText = records.SearchText(recs[i].Title, recs[i].Description)
	}
	return recs, fetchedAt, nil
}
