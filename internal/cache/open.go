package cache

import (
	"fmt"
	"path/filepath"
)

// Store kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Open creates the store of the given kind rooted at dir.
func Open(kind, dir string, compressionLevel int) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(dir, compressionLevel)
	case KindSQLite:
		return NewSQLiteStore(filepath.Join(dir, SQLiteFile))
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache store %q (want %s, %s or %s)", kind, KindFile, KindSQLite, KindMemory)
	}
}
