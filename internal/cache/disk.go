package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// fileSuffix is appended to the list name to form the artifact file name.
const fileSuffix = "_list.cat"

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// FileStore keeps one file per list name under a base directory. Records
// are JSON, compressed with zstd when a compression level is set.
type FileStore struct {
	basePath string

	// Compression
	compressionLevel int
	encoder          *zstd.Encoder
	decoder          *zstd.Decoder

	mu    sync.Mutex
	stats Stats
}

// NewFileStore creates a store rooted at basePath. The directory is created
// on the first Save. A compressionLevel of 0 writes plain JSON; files of
// either kind can always be read back.
func NewFileStore(basePath string, compressionLevel int) (*FileStore, error) {
	fs := &FileStore{
		basePath:         basePath,
		compressionLevel: compressionLevel,
	}

	var err error
	if compressionLevel > 0 {
		fs.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}

	fs.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return fs, nil
}

// Path returns the artifact path for name.
func (fs *FileStore) Path(name string) string {
	return filepath.Join(fs.basePath, name+fileSuffix)
}

// Load reads the record for name.
func (fs *FileStore) Load(name string) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.stats.LastAccess = time.Now()

	data, err := os.ReadFile(fs.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fs.stats.Misses++
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	if bytes.HasPrefix(data, zstdMagic) {
		data, err = fs.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
	}

	rec, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	fs.stats.Hits++
	return rec, nil
}

// Save writes rec, replacing any previous record with the same name.
func (fs *FileStore) Save(rec *Record) error {
	data, err := Marshal(rec)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.encoder != nil {
		data = fs.encoder.EncodeAll(data, nil)
	}

	if err := os.MkdirAll(fs.basePath, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := fs.writeFile(fs.Path(rec.Name), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	fs.stats.Writes++
	fs.stats.LastAccess = time.Now()
	return nil
}

// Delete removes the record for name.
func (fs *FileStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Stats returns store statistics.
func (fs *FileStore) Stats() Stats {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.stats
}

// Close releases the zstd encoder and decoder.
func (fs *FileStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.decoder.Close()
	if fs.encoder != nil {
		return fs.encoder.Close()
	}
	return nil
}

// writeFile writes to a temp file and renames it over path, so readers see
// either the old record or the new one.
func (fs *FileStore) writeFile(path string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tempPath := file.Name()

	_, err = file.Write(data)
	closeErr := file.Close()

	if err != nil {
		os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, path)
}
