package store

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSlot stores the blob in a single-row SQLite table, for deployments
// that want the cache in the same database file as other local state.
type SQLiteSlot struct {
	db *sql.DB
}

var _ Slot = (*SQLiteSlot)(nil)

// NewSQLiteSlot opens (or creates) the database at path and prepares the
// slot table.
func NewSQLiteSlot(path string) (*SQLiteSlot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS city_cache (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSlot{db: db}, nil
}

func (s *SQLiteSlot) Write(data []byte) error {
	const upsert = `
	INSERT INTO city_cache (id, data, updated_at) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	_, err := s.db.Exec(upsert, data, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteSlot) Read() ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM city_cache WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
