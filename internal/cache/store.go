// Package cache implements the content-addressed store for unwrap results.
// Entries are keyed by a fingerprint of geometry plus parameters and hold
// the produced UV map together with both metric families.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/astitvaaryan/uvwrap/internal/model"
	"github.com/astitvaaryan/uvwrap/internal/telemetry"
)

// entryExt is the on-disk extension for cache entries.
const entryExt = ".uvz"

// entryVersion is bumped whenever the envelope layout changes; entries with
// a different version are treated as misses.
const entryVersion = 1

// Entry is the stored payload for one fingerprint: the UV map plus the
// solver-reported metrics and the locally recomputed quality scores.
type Entry struct {
	Version int                 `json:"version"`
	UVs     model.UVMap         `json:"uvs"`
	Engine  model.EngineMetrics `json:"engine_metrics"`
	Quality model.QualityScores `json:"quality"`
}

// Store is a directory of gzip-compressed JSON entries, one file per
// fingerprint. Concurrent reads and writes of distinct keys are safe;
// writers publish atomically via a temp file and rename, so readers never
// observe a partially written entry.
type Store struct {
	dir    string
	locks  *keyLocks
	logger *zap.Logger
}

// DefaultDir returns the user-scoped cache directory, typically
// ~/.cache/uvwrap on Linux.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "uvwrap"), nil
}

// Open creates the store rooted at dir, creating the directory if needed.
// An empty dir selects DefaultDir. A nil logger disables logging.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, locks: newKeyLocks(), logger: logger}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+entryExt)
}

// Exists reports whether an entry file is present for key.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Load returns the entry for key, or ok=false when no entry exists or the
// stored file cannot be decoded. Corruption is deliberately indistinguishable
// from absence: a broken entry is a miss, never an error.
func (s *Store) Load(key string) (*Entry, bool) {
	entry, err := s.read(key)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("discarding unreadable cache entry",
				zap.String("key", key), zap.Error(err))
		}
		telemetry.CacheMisses.Inc()
		return nil, false
	}
	telemetry.CacheHits.Inc()
	return entry, true
}

func (s *Store) read(key string) (*Entry, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	var entry Entry
	if err := json.NewDecoder(zr).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if entry.Version != entryVersion {
		return nil, fmt.Errorf("entry version %d, want %d", entry.Version, entryVersion)
	}
	return &entry, nil
}

// Put persists an entry for key, overwriting any previous one. The entry is
// written to a temp file in the store directory and atomically renamed into
// place.
func (s *Store) Put(key string, uvs model.UVMap, engine model.EngineMetrics, quality model.QualityScores) error {
	entry := Entry{
		Version: entryVersion,
		UVs:     uvs,
		Engine:  engine,
		Quality: quality,
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeEntry(tmp, entry); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publish cache entry: %w", err)
	}

	s.logger.Debug("stored cache entry", zap.String("key", key), zap.Int("uvs", len(uvs)))
	return nil
}

func writeEntry(w io.Writer, entry Entry) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(entry); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// LockKey acquires the advisory lock for key and returns its release
// function. While held, no other goroutine in this process can enter the
// compute-and-store section for the same fingerprint; callers re-check Load
// after acquiring to pick up an entry stored by a previous holder.
func (s *Store) LockKey(key string) func() {
	return s.locks.acquire(key)
}

// Keys lists the fingerprints of all stored entries.
func (s *Store) Keys() ([]string, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache dir: %w", err)
	}
	var keys []string
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, entryExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, entryExt))
	}
	return keys, nil
}

// Clear removes every stored entry. Clearing an empty or missing store is
// not an error.
func (s *Store) Clear() error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove cache entry %s: %w", key, err)
		}
	}
	return nil
}
