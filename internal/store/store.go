// Package store persists tracker slots in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is recorded in the metadata table on every open.
const SchemaVersion = "1"

// Store is a SQLite-backed key-value store. Each slot holds one JSON document.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.SetMetadata("schema_version", SchemaVersion); err != nil {
		return nil, fmt.Errorf("record schema version: %w", err)
	}
	slog.Debug("store opened", "path", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the contents of a slot and whether it exists.
func (s *Store) Load(slot string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM slots WHERE name = ?`, slot).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return data, true, nil
}

// Save upserts the contents of a slot.
func (s *Store) Save(slot string, data []byte) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO slots (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = ?, updated_at = ?`,
		slot, data, now, data, now,
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	return nil
}

// SlotInfo describes a stored slot.
type SlotInfo struct {
	Name      string
	Size      int
	UpdatedAt time.Time
}

// ListSlots returns every stored slot ordered by name.
func (s *Store) ListSlots() ([]SlotInfo, error) {
	rows, err := s.db.Query(`SELECT name, length(data), updated_at FROM slots ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []SlotInfo
	for rows.Next() {
		var si SlotInfo
		if err := rows.Scan(&si.Name, &si.Size, &si.UpdatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, si)
	}
	return slots, rows.Err()
}
