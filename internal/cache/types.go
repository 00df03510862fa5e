package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the Record layout written by this package. Records with
// any other version are rejected rather than decoded on a best-effort basis.
const SchemaVersion = 1

// Common errors for cache operations
var (
	// ErrCacheMiss is returned when no record exists for a name
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheCorrupted is returned when cache data is corrupted
	ErrCacheCorrupted = errors.New("cache data corrupted")

	// ErrSchemaVersion is returned alongside ErrCacheCorrupted for records
	// written with an unknown schema version
	ErrSchemaVersion = errors.New("unsupported cache schema version")

	// ErrInvalidName is returned for list names that cannot be stored
	ErrInvalidName = errors.New("invalid list name")
)

// Record is the persisted form of a catalog.
type Record struct {
	Version   int           `json:"version"`
	Name      string        `json:"name"`
	Key       KeyRecord     `json:"key"`
	Entries   []EntryRecord `json:"entries"`
	CreatedAt time.Time     `json:"created_at"`
}

// KeyRecord identifies what a catalog was built from.
type KeyRecord struct {
	Directory   string   `json:"directory"`
	Extensions  []string `json:"extensions"`
	Recursive   bool     `json:"recursive"`
	Fingerprint string   `json:"fingerprint"`
}

// EntryRecord is one catalogued file.
type EntryRecord struct {
	FilePath string `json:"file_path"`
	SeqLen   int    `json:"seq_len"`
}

// Stats holds store usage counters.
type Stats struct {
	Hits   int64 // Loads that returned a record
	Misses int64 // Loads with no record
	Writes int64 // Successful saves

	LastAccess time.Time
}

// Store defines the interface for catalog record stores.
type Store interface {
	// Load returns the record saved under name, ErrCacheMiss if there is
	// none, or an error wrapping ErrCacheCorrupted if it cannot be decoded.
	Load(name string) (*Record, error)

	// Save replaces the record stored under rec.Name.
	Save(rec *Record) error

	// Delete removes the record for name; deleting a missing name is not an error.
	Delete(name string) error

	// Stats returns usage counters.
	Stats() Stats

	Close() error
}

// Marshal encodes rec with the current schema version.
func Marshal(rec *Record) ([]byte, error) {
	if err := ValidateName(rec.Name); err != nil {
		return nil, err
	}
	out := *rec
	out.Version = SchemaVersion
	if out.Entries == nil {
		out.Entries = []EntryRecord{}
	}
	return json.Marshal(&out)
}

// Unmarshal decodes a record and checks its schema version.
func Unmarshal(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	if rec.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %w: got %d, want %d", ErrCacheCorrupted, ErrSchemaVersion, rec.Version, SchemaVersion)
	}
	return &rec, nil
}

// ValidateName rejects names that are empty or would escape the store
// directory.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
