// Package catalog builds and caches the list of audio files in a dataset
// directory together with their lengths in samples.
package catalog

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/deepxi/sebatch/internal/audio"
	"github.com/deepxi/sebatch/internal/cache"
	"github.com/deepxi/sebatch/internal/dataset"
)

// Entry is one catalogued file.
type Entry struct {
	FilePath string
	SeqLen   int // frames (samples per channel)
}

// Key identifies what a catalog was built from. A cached catalog is reused
// only when every field matches.
type Key struct {
	Directory   string
	Extensions  []string
	Recursive   bool
	Fingerprint string
}

// Equal reports whether k and o describe the same scan of the same files.
func (k Key) Equal(o Key) bool {
	return k.Directory == o.Directory &&
		k.Recursive == o.Recursive &&
		k.Fingerprint == o.Fingerprint &&
		slices.Equal(k.Extensions, o.Extensions)
}

// Stats counts how Build calls were served.
type Stats struct {
	Hits     int64 // served from the store
	Rebuilds int64 // scanned and written
}

// Builder scans directories into catalogs and persists them in a store.
// Concurrent Build calls on one Builder are serialized; separate processes
// sharing a store are not coordinated and the last writer wins.
type Builder struct {
	store      cache.Store
	codecs     *audio.Registry
	extensions []string
	recursive  bool
	logger     *log.Logger

	mu    sync.Mutex
	stats Stats
}

// Option configures a Builder.
type Option func(*Builder)

// WithExtensions sets the extension groups to scan, in order.
func WithExtensions(exts ...string) Option {
	return func(b *Builder) {
		b.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			b.extensions = append(b.extensions, strings.ToLower(strings.TrimPrefix(ext, ".")))
		}
	}
}

// WithRecursive makes Build walk subdirectories.
func WithRecursive(recursive bool) Option {
	return func(b *Builder) {
		b.recursive = recursive
	}
}

// WithLogger sets the logger used for status messages.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder over store, probing files with codecs.
func NewBuilder(store cache.Store, codecs *audio.Registry, opts ...Option) *Builder {
	b := &Builder{
		store:      store,
		codecs:     codecs,
		extensions: dataset.DefaultExtensions,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the catalog of directory stored under listName. The stored
// catalog is returned when forceRebuild is false and its key matches the
// directory as it is now; otherwise the directory is scanned, every file is
// probed, and the result replaces the stored catalog.
func (b *Builder) Build(directory, listName string, forceRebuild bool) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := cache.ValidateName(listName); err != nil {
		return nil, dataset.FileSystemError(listName, "invalid list name", err)
	}

	dir, err := filepath.Abs(directory)
	if err != nil {
		return nil, dataset.FileSystemError(directory, "unable to resolve directory", err)
	}

	paths, err := dataset.Discover(dir, b.extensions, b.recursive)
	if err != nil {
		return nil, err
	}
	fingerprint, err := dataset.Fingerprint(dir, paths)
	if err != nil {
		return nil, err
	}
	key := Key{
		Directory:   dir,
		Extensions:  b.extensions,
		Recursive:   b.recursive,
		Fingerprint: fingerprint,
	}

	if !forceRebuild {
		entries, ok, err := b.load(listName, key)
		if err != nil {
			return nil, err
		}
		if ok {
			b.stats.Hits++
			b.logger.Info("Loaded list from cache", "list", listName, "entries", len(entries))
			return entries, nil
		}
	}

	b.logger.Info("Creating list", "list", listName, "dir", dir, "files", len(paths))
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		n, err := b.codecs.Probe(p)
		if err != nil {
			return nil, dataset.UnsupportedFormatError(p, err)
		}
		entries = append(entries, Entry{FilePath: p, SeqLen: n})
	}

	if err := b.store.Save(toRecord(listName, key, entries)); err != nil {
		return nil, dataset.FileSystemError(listName, "unable to write catalog", err)
	}
	b.stats.Rebuilds++
	b.logger.Info("List written", "list", listName, "entries", len(entries))
	return entries, nil
}

// load returns the stored entries when the stored key equals key. A missing
// record is not an error; an unreadable one is.
func (b *Builder) load(listName string, key Key) ([]Entry, bool, error) {
	rec, err := b.store.Load(listName)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dataset.SerializationError(listName, "unable to read cached catalog", err)
	}

	stored := Key{
		Directory:   rec.Key.Directory,
		Extensions:  rec.Key.Extensions,
		Recursive:   rec.Key.Recursive,
		Fingerprint: rec.Key.Fingerprint,
	}
	if !stored.Equal(key) {
		b.logger.Debug("Cached list is stale", "list", listName, "cached_dir", stored.Directory, "dir", key.Directory)
		return nil, false, nil
	}

	entries := make([]Entry, len(rec.Entries))
	for i, e := range rec.Entries {
		entries[i] = Entry{FilePath: e.FilePath, SeqLen: e.SeqLen}
	}
	return entries, true, nil
}

// Stats returns how many Build calls were cache hits and rebuilds.
func (b *Builder) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func toRecord(name string, key Key, entries []Entry) *cache.Record {
	rec := &cache.Record{
		Name: name,
		Key: cache.KeyRecord{
			Directory:   key.Directory,
			Extensions:  key.Extensions,
			Recursive:   key.Recursive,
			Fingerprint: key.Fingerprint,
		},
		Entries:   make([]cache.EntryRecord, len(entries)),
		CreatedAt: time.Now().UTC(),
	}
	for i, e := range entries {
		rec.Entries[i] = cache.EntryRecord{FilePath: e.FilePath, SeqLen: e.SeqLen}
	}
	return rec
}

// TotalSamples sums the lengths of entries.
func TotalSamples(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += int64(e.SeqLen)
	}
	return total
}

// Duration returns the playing time of entries at sampleRate.
func Duration(entries []Entry, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	seconds := float64(TotalSamples(entries)) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second))
}
