package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testRecord(name string) *Record {
	return &Record{
		Name: name,
		Key: KeyRecord{
			Directory:   "/data/train",
			Extensions:  []string{"wav", "flac", "mp3"},
			Fingerprint: "abc123",
		},
		Entries: []EntryRecord{
			{FilePath: "/data/train/a.wav", SeqLen: 500},
			{FilePath: "/data/train/b.flac", SeqLen: 300},
		},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFileStore(filepath.Join(t.TempDir(), "data"), 3)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	plain, err := NewFileStore(filepath.Join(t.TempDir(), "data"), 0)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", SQLiteFile))
	if err != nil {
		t.Fatalf("Failed to create sqlite store: %v", err)
	}

	stores := map[string]Store{
		"file":       file,
		"file-plain": plain,
		"sqlite":     sqlite,
		"memory":     NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Load("train"); !errors.Is(err, ErrCacheMiss) {
				t.Fatalf("expected ErrCacheMiss before save, got %v", err)
			}

			rec := testRecord("train")
			if err := store.Save(rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := store.Load("train")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got.Version != SchemaVersion {
				t.Errorf("Version = %d, want %d", got.Version, SchemaVersion)
			}
			if got.Key.Directory != rec.Key.Directory || got.Key.Fingerprint != rec.Key.Fingerprint {
				t.Errorf("key mismatch: %+v", got.Key)
			}
			if len(got.Entries) != 2 || got.Entries[1].SeqLen != 300 {
				t.Errorf("entries mismatch: %+v", got.Entries)
			}
			if !got.CreatedAt.Equal(rec.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
			}

			stats := store.Stats()
			if stats.Hits != 1 || stats.Misses != 1 || stats.Writes != 1 {
				t.Errorf("unexpected stats: %+v", stats)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(testRecord("train")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			rec := testRecord("train")
			rec.Entries = rec.Entries[:1]
			if err := store.Save(rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := store.Load("train")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got.Entries) != 1 {
				t.Errorf("expected overwritten record with 1 entry, got %d", len(got.Entries))
			}
		})
	}
}

func TestStore_EmptyEntries(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := testRecord("empty")
			rec.Entries = nil
			if err := store.Save(rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := store.Load("empty")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got.Entries) != 0 {
				t.Errorf("expected no entries, got %d", len(got.Entries))
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(testRecord("train")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if err := store.Delete("train"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := store.Load("train"); !errors.Is(err, ErrCacheMiss) {
				t.Errorf("expected ErrCacheMiss after delete, got %v", err)
			}
			if err := store.Delete("train"); err != nil {
				t.Errorf("deleting a missing record should succeed: %v", err)
			}
		})
	}
}

func TestStore_InvalidName(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := testRecord("../escape")
			if err := store.Save(rec); !errors.Is(err, ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
		})
	}
}

func TestFileStore_Compression(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, 3)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	defer store.Close()

	if err := store.Save(testRecord("train")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "train_list.cat"))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		t.Error("expected zstd frame on disk")
	}

	// A store without compression reads the compressed artifact too.
	plain, err := NewFileStore(dir, 0)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	defer plain.Close()
	if _, err := plain.Load("train"); err != nil {
		t.Errorf("plain store failed to read compressed record: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the artifact in %s, found %d files", dir, len(entries))
	}
}

func TestFileStore_CreatesDirectoryOnSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewFileStore(dir, 3)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("directory should not exist before Save")
	}
	if err := store.Save(testRecord("train")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(store.Path("train")); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestFileStore_Corrupted(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		version bool
	}{
		{name: "garbage", data: []byte("not json at all")},
		{name: "bad zstd", data: append(append([]byte{}, zstdMagic...), 0xff, 0xff, 0xff)},
		{name: "future version", data: []byte(`{"version": 99, "name": "train", "entries": []}`), version: true},
		{name: "missing version", data: []byte(`{"name": "train", "entries": []}`), version: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewFileStore(dir, 3)
			if err != nil {
				t.Fatalf("Failed to create file store: %v", err)
			}
			defer store.Close()

			if err := os.WriteFile(store.Path("train"), tt.data, 0o644); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			_, err = store.Load("train")
			if !errors.Is(err, ErrCacheCorrupted) {
				t.Fatalf("expected ErrCacheCorrupted, got %v", err)
			}
			if tt.version && !errors.Is(err, ErrSchemaVersion) {
				t.Errorf("expected ErrSchemaVersion, got %v", err)
			}
		})
	}
}

func TestMemoryStore_Corrupted(t *testing.T) {
	store := NewMemoryStore()
	store.Put("train", []byte("{"))

	if _, err := store.Load("train"); !errors.Is(err, ErrCacheCorrupted) {
		t.Errorf("expected ErrCacheCorrupted, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"", KindFile, KindSQLite, KindMemory} {
		store, err := Open(kind, dir, 3)
		if err != nil {
			t.Errorf("Open(%q) failed: %v", kind, err)
			continue
		}
		_ = store.Close()
	}

	if _, err := Open("redis", dir, 3); err == nil {
		t.Error("expected error for unknown store kind")
	}
}
