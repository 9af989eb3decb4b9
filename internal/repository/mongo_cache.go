package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cacheDocument is one cached image: metadata, payload and the absolute
// expiry watched by the TTL index.
type cacheDocument struct {
	model.CacheEntry `bson:",inline"`
	Data             []byte    `bson:"data"`
	ExpiresAt        time.Time `bson:"expiresAt"`
}

// MongoCacheStore keeps each entry in a single document. The server's TTL
// monitor removes expired documents; reads filter on expiresAt so an entry
// the monitor has not reaped yet is still a miss.
type MongoCacheStore struct {
	coll *mongo.Collection
	opts storeOptions
	log  zerolog.Logger
}

// NewMongoCacheStore creates a store on the given collection.
func NewMongoCacheStore(coll *mongo.Collection, opts ...StoreOption) *MongoCacheStore {
	return &MongoCacheStore{
		coll: coll,
		opts: applyStoreOptions(opts),
		log:  logger.Component("cache.mongodb"),
	}
}

// Get atomically records the hit and returns the payload of a live entry.
func (s *MongoCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	now := s.opts.now()
	filter := bson.M{"_id": key, "expiresAt": bson.M{"$gt": now}}
	update := bson.M{
		"$inc": bson.M{"hits": 1},
		"$set": bson.M{"lastAccess": now.UnixMilli()},
	}

	var doc cacheDocument
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mongodb get %s: %w", key, err)
	}

	if int64(len(doc.Data)) != doc.Size {
		s.log.Warn().Str("cache_key", key).Msg("Cached payload does not match its metadata, dropping entry")
		if _, delErr := s.coll.DeleteOne(ctx, bson.M{"_id": key}); delErr != nil {
			s.log.Warn().Err(delErr).Str("cache_key", key).Msg("Failed to drop inconsistent entry")
		}
		return nil, false, nil
	}
	return doc.Data, true, nil
}

// Set upserts the entry with a fresh timestamp set.
func (s *MongoCacheStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := model.NewCacheEntry(key, len(data), ttl, s.opts.now())
	doc := cacheDocument{
		CacheEntry: entry,
		Data:       data,
		ExpiresAt:  entry.ExpiresAt(),
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb set %s: %w", key, err)
	}

	s.log.Info().
		Str("cache_key", key).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Dur("ttl", ttl).
		Msg("Cached image")
	return nil
}

// Delete removes the entry.
func (s *MongoCacheStore) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongodb delete %s: %w", key, err)
	}
	s.log.Debug().Str("cache_key", key).Msg("Deleted cache entry")
	return nil
}

// Entries returns the metadata of every stored entry, oldest first, without payloads.
func (s *MongoCacheStore) Entries(ctx context.Context) ([]model.CacheEntry, error) {
	opts := options.Find().
		SetProjection(bson.M{"data": 0, "expiresAt": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb list entries: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	entries := []model.CacheEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("mongodb decode entries: %w", err)
	}
	return entries, nil
}

// Cleanup deletes each planned phase with one DeleteMany.
func (s *MongoCacheStore) Cleanup(ctx context.Context, maxSize int64, maxEntries int) (model.CleanupReport, error) {
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
		_, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
		return err
	}, s.log)
}
