package model

import "time"

// CacheEntry is the metadata record of one cached image.
// Timestamps and TTL are stored in Unix milliseconds so the record is
// backend-agnostic (JSON index file, msgpack in Redis, BSON in MongoDB).
type CacheEntry struct {
	Key        string `json:"key" msgpack:"key" bson:"_id"`
	Filename   string `json:"filename" msgpack:"filename" bson:"filename"`
	Size       int64  `json:"size" msgpack:"size" bson:"size"`
	CreatedAt  int64  `json:"createdAt" msgpack:"createdAt" bson:"createdAt"`
	LastAccess int64  `json:"lastAccess" msgpack:"lastAccess" bson:"lastAccess"`
	Hits       int64  `json:"hits" msgpack:"hits" bson:"hits"`
	TTL        int64  `json:"ttl" msgpack:"ttl" bson:"ttl"`
}

// NewCacheEntry creates the metadata for a freshly stored payload.
func NewCacheEntry(key string, size int, ttl time.Duration, now time.Time) CacheEntry {
	ms := now.UnixMilli()
	return CacheEntry{
		Key:        key,
		Filename:   key + ".jpg",
		Size:       int64(size),
		CreatedAt:  ms,
		LastAccess: ms,
		Hits:       0,
		TTL:        ttl.Milliseconds(),
	}
}

// Expired reports whether the entry outlived its TTL at the given time.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.UnixMilli()-e.CreatedAt > e.TTL
}

// Remaining returns how long the entry has left before it expires.
// It never returns a negative duration.
func (e CacheEntry) Remaining(now time.Time) time.Duration {
	left := e.TTL - (now.UnixMilli() - e.CreatedAt)
	if left < 0 {
		return 0
	}
	return time.Duration(left) * time.Millisecond
}

// ExpiresAt returns the absolute expiry time.
func (e CacheEntry) ExpiresAt() time.Time {
	return time.UnixMilli(e.CreatedAt + e.TTL)
}

// Touch records a successful read.
func (e *CacheEntry) Touch(now time.Time) {
	e.Hits++
	e.LastAccess = now.UnixMilli()
}

// CleanupReport summarizes one cleanup pass.
type CleanupReport struct {
	Expired      int   `json:"expired"`
	CountEvicted int   `json:"countEvicted"`
	SizeEvicted  int   `json:"sizeEvicted"`
	FreedBytes   int64 `json:"freedBytes"`
}

// Removed returns the total number of entries removed.
func (r CleanupReport) Removed() int {
	return r.Expired + r.CountEvicted + r.SizeEvicted
}

// CacheStats are aggregate statistics over all live entries.
//
// @Description Aggregate cache statistics
type CacheStats struct {
	TotalEntries int     `json:"totalEntries" example:"42"`
	TotalSize    int64   `json:"totalSize" example:"1048576"`
	TotalSizeMB  string  `json:"totalSizeMB" example:"1.00"`
	AvgSize      float64 `json:"avgSize" example:"24966.1"`
	TotalHits    int64   `json:"totalHits" example:"310"`
	OldestEntry  *int64  `json:"oldestEntry" example:"1730000000000"`
	NewestEntry  *int64  `json:"newestEntry" example:"1730003600000"`
}
