package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Redis key prefixes. Payload and metadata of one entry share the suffix and
// are written with the same expiry.
const (
	RedisImagePrefix = "cache:img:"
	RedisMetaPrefix  = "cache:meta:"
)

// RedisCacheStore stores payloads and msgpack-encoded metadata in Redis and
// relies on native key expiry.
type RedisCacheStore struct {
	client redis.UniversalClient
	opts   storeOptions
	log    zerolog.Logger
}

// NewRedisClient connects to the Redis server described by url and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisCacheStore creates a store on top of an existing client.
func NewRedisCacheStore(client redis.UniversalClient, opts ...StoreOption) *RedisCacheStore {
	return &RedisCacheStore{
		client: client,
		opts:   applyStoreOptions(opts),
		log:    logger.Component("cache.redis"),
	}
}

func imageKey(key string) string { return RedisImagePrefix + key }
func metaKey(key string) string  { return RedisMetaPrefix + key }

// Get fetches payload and metadata together. If only one of the pair is
// present the survivor is deleted and the read is a miss. A hit re-writes the
// metadata with the payload's remaining expiry so the two keep expiring together.
func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	pipe := s.client.Pipeline()
	imgCmd := pipe.Get(ctx, imageKey(key))
	metaCmd := pipe.Get(ctx, metaKey(key))
	ttlCmd := pipe.PTTL(ctx, imageKey(key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	data, imgErr := imgCmd.Bytes()
	rawMeta, metaErr := metaCmd.Bytes()
	if imgErr != nil && !errors.Is(imgErr, redis.Nil) {
		return nil, false, fmt.Errorf("redis get image: %w", imgErr)
	}
	if metaErr != nil && !errors.Is(metaErr, redis.Nil) {
		return nil, false, fmt.Errorf("redis get metadata: %w", metaErr)
	}

	imgMissing := errors.Is(imgErr, redis.Nil)
	metaMissing := errors.Is(metaErr, redis.Nil)
	switch {
	case imgMissing && metaMissing:
		return nil, false, nil
	case imgMissing:
		s.deleteOrphan(ctx, metaKey(key))
		return nil, false, nil
	case metaMissing:
		s.deleteOrphan(ctx, imageKey(key))
		return nil, false, nil
	}

	var entry model.CacheEntry
	if err := msgpack.Unmarshal(rawMeta, &entry); err != nil {
		s.log.Warn().Err(err).Str("cache_key", key).Msg("Corrupt cache metadata, dropping entry")
		if delErr := s.client.Del(ctx, imageKey(key), metaKey(key)).Err(); delErr != nil {
			s.log.Warn().Err(delErr).Str("cache_key", key).Msg("Failed to drop corrupt entry")
		}
		return nil, false, nil
	}

	now := s.opts.now()
	entry.Touch(now)

	remaining := ttlCmd.Val()
	if remaining <= 0 {
		remaining = entry.Remaining(now)
	}
	if remaining > 0 {
		if err := s.writeMeta(ctx, entry, remaining); err != nil {
			s.log.Warn().Err(err).Str("cache_key", key).Msg("Failed to update cache metadata")
		}
	}

	return data, true, nil
}

// Set stores payload and metadata atomically with the same expiry.
func (s *RedisCacheStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := model.NewCacheEntry(key, len(data), ttl, s.opts.now())
	rawMeta, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("encode cache metadata: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, imageKey(key), data, ttl)
		pipe.Set(ctx, metaKey(key), rawMeta, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	s.log.Info().
		Str("cache_key", key).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Dur("ttl", ttl).
		Msg("Cached image")
	return nil
}

// Delete removes both keys of the entry.
func (s *RedisCacheStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, imageKey(key), metaKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	s.log.Debug().Str("cache_key", key).Msg("Deleted cache entry")
	return nil
}

// Entries scans the metadata keyspace page by page and loads the records
// with MGET. Keys that expire between the scan and the fetch are skipped.
func (s *RedisCacheStore) Entries(ctx context.Context) ([]model.CacheEntry, error) {
	keys, err := s.scanMetaKeys(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.CacheEntry, 0, len(keys))
	batch := int(s.opts.scanBatch)
	for start := 0; start < len(keys); start += batch {
		end := min(start+batch, len(keys))
		values, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis mget: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var entry model.CacheEntry
			if err := msgpack.Unmarshal([]byte(raw), &entry); err != nil {
				s.log.Debug().Err(err).Str("key", keys[start+i]).Msg("Skipping undecodable cache metadata")
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Cleanup enumerates the entries and deletes each phase with a single DEL.
func (s *RedisCacheStore) Cleanup(ctx context.Context, maxSize int64, maxEntries int) (model.CleanupReport, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Cache cleanup could not enumerate entries")
		return model.CleanupReport{}, err
	}
	if len(entries) == 0 {
		return model.CleanupReport{}, nil
	}

	phases := planCleanup(entries, s.opts.now(), maxSize, maxEntries)
	return runCleanup(ctx, phases, func(ctx context.Context, keys []string) error {
		redisKeys := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			redisKeys = append(redisKeys, imageKey(k), metaKey(k))
		}
		return s.client.Del(ctx, redisKeys...).Err()
	}, s.log)
}

// Ping checks connectivity.
func (s *RedisCacheStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisCacheStore) scanMetaKeys(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64
	for {
		page, next, err := s.client.Scan(ctx, cursor, RedisMetaPrefix+"*", s.opts.scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range page {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (s *RedisCacheStore) writeMeta(ctx context.Context, entry model.CacheEntry, ttl time.Duration) error {
	raw, err := msgpack.Marshal(&entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, metaKey(entry.Key), raw, ttl).Err()
}

func (s *RedisCacheStore) deleteOrphan(ctx context.Context, redisKey string) {
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", redisKey).Msg("Failed to delete orphaned cache key")
		return
	}
	s.log.Debug().Str("key", redisKey).Msg("Deleted orphaned cache key")
}
