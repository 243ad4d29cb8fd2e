package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/Grailmarket/gusd/internal/event"
)

// Journal persists every applied state transition in SQLite. Replaying it
// from a snapshot's sequence number rebuilds the controller state.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) the journal database with WAL mode enabled.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Configure SQLite for deterministic single-writer logging
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			seq INTEGER PRIMARY KEY,
			type INTEGER NOT NULL,
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	// Metadata KV for deployment identity checks
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Append stores one record. The record's sequence number is the primary
// key, so an accidental duplicate write fails instead of forking history.
func (j *Journal) Append(ctx context.Context, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO records (seq, type, ts, payload) VALUES (?, ?, ?, ?)",
		ev.GetSeq(), ev.GetType(), ev.GetTs(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record %d: %w", ev.GetSeq(), err)
	}
	return nil
}

// LastSeq returns the highest sequence number stored, or 0 when empty.
func (j *Journal) LastSeq(ctx context.Context) (uint64, error) {
	var last sql.NullInt64
	err := j.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM records").Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return uint64(last.Int64), nil
}

// Load returns all records with seq >= fromSeq in sequence order, decoded
// into their concrete event types.
func (j *Journal) Load(ctx context.Context, fromSeq uint64) ([]event.Event, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT seq, type, payload FROM records WHERE seq >= ? ORDER BY seq ASC",
		fromSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var seq int64
		var typ int
		var payload []byte
		if err := rows.Scan(&seq, &typ, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		ev, err := event.Unmarshal(event.Type(typ), payload)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", seq, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return events, nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (j *Journal) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table. Missing keys
// return an empty string.
func (j *Journal) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := j.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
