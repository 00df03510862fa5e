// Package cache persists catalog records. A Store saves one versioned Record
// per list name; FileStore keeps zstd-compressed files on disk, SQLiteStore
// keeps rows in a single database, and MemoryStore is used in tests.
package cache
