package store

import (
	"database/sql"
	"time"
)

const importedPrefix = "imported:"

// SetMetadata upserts a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetImportedFileHash records the content hash of an imported backup file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	return s.SetMetadata(importedPrefix+path, hash)
}

// GetImportedFileHash returns the hash recorded for path, or "" if it was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	return s.GetMetadata(importedPrefix + path)
}

// SetLastExport records when data was last exported.
func (s *Store) SetLastExport(t time.Time) error {
	return s.SetMetadata("last_export", t.UTC().Format(time.RFC3339))
}

// LastExport returns when data was last exported. The zero time means never.
func (s *Store) LastExport() (time.Time, error) {
	v, err := s.GetMetadata("last_export")
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}
