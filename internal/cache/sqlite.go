package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// SQLiteFile is the database file name used inside a cache directory.
const SQLiteFile = "catalogs.db"

// SQLiteStore keeps every record as a row of one SQLite database.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.Mutex
	stats Stats
}

// NewSQLiteStore opens (creating if needed) the database at dataSourceName.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	if dbDir := filepath.Dir(dbPath); dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}

	const schema = `
    CREATE TABLE IF NOT EXISTS catalogs (
        name TEXT PRIMARY KEY,
        version INTEGER NOT NULL,
        payload BLOB NOT NULL,
        created_at DATETIME NOT NULL
    );
    `
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns the record saved under name.
func (s *SQLiteStore) Load(name string) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.LastAccess = time.Now()

	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM catalogs WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		s.stats.Misses++
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("error querying catalog %q: %w", name, err)
	}

	rec, err := Unmarshal(payload)
	if err != nil {
		return nil, err
	}
	s.stats.Hits++
	return rec, nil
}

// Save inserts or replaces the row for rec.Name in one statement.
func (s *SQLiteStore) Save(rec *Record) error {
	payload, err := Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
        INSERT INTO catalogs (name, version, payload, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            version = excluded.version,
            payload = excluded.payload,
            created_at = excluded.created_at`,
		rec.Name, SchemaVersion, payload, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("error saving catalog %q: %w", rec.Name, err)
	}

	s.stats.Writes++
	s.stats.LastAccess = time.Now()
	return nil
}

// Delete removes the row for name.
func (s *SQLiteStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM catalogs WHERE name = ?`, name); err != nil {
		return fmt.Errorf("error deleting catalog %q: %w", name, err)
	}
	return nil
}

// Stats returns store statistics.
func (s *SQLiteStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
