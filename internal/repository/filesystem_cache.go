package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/rs/zerolog"
)

// MetadataFileName is the index file written next to the blob directory.
const MetadataFileName = "metadata.json"

// cacheIndex is the persisted form of the filesystem index.
type cacheIndex struct {
	Entries   map[string]model.CacheEntry `json:"entries"`
	TotalSize int64                       `json:"totalSize"`
}

// FilesystemCacheStore keeps image blobs as files named by key and an
// in-memory index that is rewritten to disk after every mutation.
//
// The index is guarded against concurrent goroutines of one process only;
// several processes sharing the same directory will lose updates.
type FilesystemCacheStore struct {
	dir          string
	metadataFile string
	opts         storeOptions
	log          zerolog.Logger

	mu    sync.Mutex
	index cacheIndex
}

// NewFilesystemCacheStore opens (or creates) a cache rooted at dir.
// The index lives at dir/../metadata.json. An unreadable index is replaced
// with an empty one.
func NewFilesystemCacheStore(dir string, opts ...StoreOption) (*FilesystemCacheStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	s := &FilesystemCacheStore{
		dir:          dir,
		metadataFile: filepath.Join(filepath.Dir(filepath.Clean(dir)), MetadataFileName),
		opts:         applyStoreOptions(opts),
		log:          logger.Component("cache.filesystem"),
	}
	s.index = s.loadIndex()
	return s, nil
}

// MetadataFile returns the path of the persisted index.
func (s *FilesystemCacheStore) MetadataFile() string {
	return s.metadataFile
}

// Get returns the cached payload. Expired entries and entries whose blob
// has disappeared are pruned and reported as misses.
func (s *FilesystemCacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index.Entries[key]
	if !ok {
		return nil, false, nil
	}

	now := s.opts.now()
	if entry.Expired(now) {
		s.removeLocked(entry)
		return nil, false, s.saveIndexLocked()
	}

	data, err := os.ReadFile(s.blobPath(entry))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Str("cache_key", key).Msg("Cache entry exists but file is missing")
			s.dropLocked(entry)
			return nil, false, s.saveIndexLocked()
		}
		return nil, false, fmt.Errorf("read cached image: %w", err)
	}

	entry.Touch(now)
	s.index.Entries[key] = entry
	if err := s.saveIndexLocked(); err != nil {
		s.log.Warn().Err(err).Str("cache_key", key).Msg("Failed to persist cache hit")
	}
	return data, true, nil
}

// Set writes the payload and records a fresh entry, replacing any previous one.
func (s *FilesystemCacheStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := model.NewCacheEntry(key, len(data), ttl, s.opts.now())
	if err := os.WriteFile(s.blobPath(entry), data, 0o644); err != nil {
		return fmt.Errorf("write cached image: %w", err)
	}

	if old, ok := s.index.Entries[key]; ok {
		s.index.TotalSize -= old.Size
	}
	s.index.Entries[key] = entry
	s.index.TotalSize += entry.Size

	if err := s.saveIndexLocked(); err != nil {
		return err
	}

	s.log.Info().
		Str("cache_key", key).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Dur("ttl", ttl).
		Msg("Cached image")
	return nil
}

// Delete removes the entry and its blob. Deleting an unknown key is a no-op.
func (s *FilesystemCacheStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index.Entries[key]
	if !ok {
		return nil
	}
	s.removeLocked(entry)
	if err := s.saveIndexLocked(); err != nil {
		return err
	}
	s.log.Debug().Str("cache_key", key).Msg("Deleted cache entry")
	return nil
}

// Entries returns every indexed entry, oldest first.
func (s *FilesystemCacheStore) Entries(_ context.Context) ([]model.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEntriesLocked(), nil
}

// TotalSize returns the running aggregate payload size.
func (s *FilesystemCacheStore) TotalSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.TotalSize
}

// Cleanup runs the expiry, count and size phases against the index.
func (s *FilesystemCacheStore) Cleanup(ctx context.Context, maxSize int64, maxEntries int) (model.CleanupReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	phases := planCleanup(s.sortedEntriesLocked(), s.opts.now(), maxSize, maxEntries)
	return runCleanup(ctx, phases, func(_ context.Context, keys []string) error {
		for _, k := range keys {
			if entry, ok := s.index.Entries[k]; ok {
				s.removeLocked(entry)
			}
		}
		return s.saveIndexLocked()
	}, s.log)
}

func (s *FilesystemCacheStore) blobPath(e model.CacheEntry) string {
	return filepath.Join(s.dir, e.Filename)
}

func (s *FilesystemCacheStore) sortedEntriesLocked() []model.CacheEntry {
	entries := make([]model.CacheEntry, 0, len(s.index.Entries))
	for _, e := range s.index.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt < entries[j].CreatedAt
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// removeLocked deletes the blob and the index entry.
func (s *FilesystemCacheStore) removeLocked(e model.CacheEntry) {
	if err := os.Remove(s.blobPath(e)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn().Err(err).Str("cache_key", e.Key).Msg("Failed to remove cached file")
	}
	s.dropLocked(e)
}

// dropLocked deletes the index entry only.
func (s *FilesystemCacheStore) dropLocked(e model.CacheEntry) {
	delete(s.index.Entries, e.Key)
	s.index.TotalSize -= e.Size
	if s.index.TotalSize < 0 {
		s.index.TotalSize = 0
	}
}

func (s *FilesystemCacheStore) loadIndex() cacheIndex {
	empty := cacheIndex{Entries: map[string]model.CacheEntry{}}

	raw, err := os.ReadFile(s.metadataFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Msg("Failed to read cache metadata, starting empty")
		}
		return empty
	}

	var idx cacheIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to parse cache metadata, starting empty")
		return empty
	}
	if idx.Entries == nil {
		idx.Entries = map[string]model.CacheEntry{}
	}
	return idx
}

// saveIndexLocked rewrites the whole index through a temp file and rename.
func (s *FilesystemCacheStore) saveIndexLocked() error {
	raw, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.metadataFile), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	tmp := s.metadataFile + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}
	if err := os.Rename(tmp, s.metadataFile); err != nil {
		return fmt.Errorf("replace cache metadata: %w", err)
	}
	return nil
}
