//go:build !integration

package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.UnixMilli(1_700_000_000_000)

func entry(key string, size, hits int64, createdAgo, accessedAgo, ttl time.Duration) model.CacheEntry {
	return model.CacheEntry{
		Key:        key,
		Filename:   key + ".jpg",
		Size:       size,
		CreatedAt:  baseTime.Add(-createdAgo).UnixMilli(),
		LastAccess: baseTime.Add(-accessedAgo).UnixMilli(),
		Hits:       hits,
		TTL:        ttl.Milliseconds(),
	}
}

func victimKeys(p cleanupPhase) []string {
	keys := make([]string, 0, len(p.victims))
	for _, v := range p.victims {
		keys = append(keys, v.Key)
	}
	return keys
}

func TestPlanCleanup(t *testing.T) {
	t.Run("expiry sweep removes entries strictly past their ttl", func(t *testing.T) {
		entries := []model.CacheEntry{
			entry("past", 10, 0, time.Hour+time.Millisecond, 0, time.Hour),
			entry("boundary", 10, 0, time.Hour, 0, time.Hour),
			entry("fresh", 10, 0, time.Minute, 0, time.Hour),
		}

		phases := planCleanup(entries, baseTime, 0, 0)

		assert.Equal(t, []string{"past"}, victimKeys(phases[0]))
		assert.Empty(t, phases[1].victims)
		assert.Empty(t, phases[2].victims)
	})

	t.Run("count eviction keeps the most used entries", func(t *testing.T) {
		entries := []model.CacheEntry{
			entry("a", 10, 5, time.Minute, 0, time.Hour),
			entry("b", 10, 1, time.Minute, 0, time.Hour),
			entry("c", 10, 9, time.Minute, 0, time.Hour),
			entry("d", 10, 3, time.Minute, 0, time.Hour),
			entry("e", 10, 7, time.Minute, 0, time.Hour),
		}

		phases := planCleanup(entries, baseTime, 0, 3)

		assert.Equal(t, ReasonCount, phases[1].reason)
		assert.Equal(t, []string{"b", "d"}, victimKeys(phases[1]))
	})

	t.Run("count eviction breaks ties by enumeration order", func(t *testing.T) {
		entries := []model.CacheEntry{
			entry("first", 10, 0, time.Minute, 0, time.Hour),
			entry("second", 10, 0, time.Minute, 0, time.Hour),
			entry("third", 10, 0, time.Minute, 0, time.Hour),
		}

		phases := planCleanup(entries, baseTime, 0, 1)

		assert.Equal(t, []string{"first", "second"}, victimKeys(phases[1]))
	})

	t.Run("count eviction ignores already expired entries", func(t *testing.T) {
		entries := []model.CacheEntry{
			entry("old", 10, 0, 2*time.Hour, 0, time.Hour),
			entry("a", 10, 1, time.Minute, 0, time.Hour),
			entry("b", 10, 2, time.Minute, 0, time.Hour),
		}

		phases := planCleanup(entries, baseTime, 0, 2)

		assert.Equal(t, []string{"old"}, victimKeys(phases[0]))
		assert.Empty(t, phases[1].victims)
	})

	t.Run("size eviction drops least recently used down to the watermark", func(t *testing.T) {
		entries := []model.CacheEntry{
			entry("recent", 100, 0, time.Hour, 1*time.Minute, 24*time.Hour),
			entry("oldest", 100, 0, time.Hour, 5*time.Minute, 24*time.Hour),
			entry("middle", 100, 0, time.Hour, 3*time.Minute, 24*time.Hour),
			entry("older", 100, 0, time.Hour, 4*time.Minute, 24*time.Hour),
			entry("newer", 100, 0, time.Hour, 2*time.Minute, 24*time.Hour),
		}

		phases := planCleanup(entries, baseTime, 400, 0)

		assert.Equal(t, []string{"oldest", "older"}, victimKeys(phases[2]))
	})

	t.Run("size under the bound evicts nothing", func(t *testing.T) {
		entries := []model.CacheEntry{
			entry("a", 100, 0, time.Minute, 0, time.Hour),
			entry("b", 100, 0, time.Minute, 0, time.Hour),
		}

		phases := planCleanup(entries, baseTime, 200, 0)

		assert.Empty(t, phases[2].victims)
	})

	t.Run("phases chain on what earlier phases kept", func(t *testing.T) {
		entries := []model.CacheEntry{
			entry("expired", 500, 9, 2*time.Hour, 0, time.Hour),
			entry("cold", 100, 0, time.Minute, 1*time.Second, time.Hour),
			entry("warm", 100, 5, time.Minute, 3*time.Second, time.Hour),
			entry("hot", 100, 8, time.Minute, 2*time.Second, time.Hour),
		}

		phases := planCleanup(entries, baseTime, 150, 2)

		assert.Equal(t, []string{"expired"}, victimKeys(phases[0]))
		assert.Equal(t, []string{"cold"}, victimKeys(phases[1]))
		assert.Equal(t, []string{"warm"}, victimKeys(phases[2]))
	})
}

func TestRunCleanup(t *testing.T) {
	phases := []cleanupPhase{
		{reason: ReasonExpired, victims: []model.CacheEntry{{Key: "a", Size: 10}}},
		{reason: ReasonCount, victims: []model.CacheEntry{{Key: "b", Size: 20}, {Key: "c", Size: 30}}},
		{reason: ReasonSize, victims: []model.CacheEntry{{Key: "d", Size: 40}}},
	}

	t.Run("reports every phase", func(t *testing.T) {
		var removed []string
		report, err := runCleanup(context.Background(), phases, func(_ context.Context, keys []string) error {
			removed = append(removed, keys...)
			return nil
		}, zerolog.Nop())

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, removed)
		assert.Equal(t, model.CleanupReport{Expired: 1, CountEvicted: 2, SizeEvicted: 1, FreedBytes: 100}, report)
	})

	t.Run("failed phase is logged and skipped", func(t *testing.T) {
		var buf bytes.Buffer
		boom := errors.New("boom")

		report, err := runCleanup(context.Background(), phases, func(_ context.Context, keys []string) error {
			if keys[0] == "b" {
				return boom
			}
			return nil
		}, zerolog.New(&buf))

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, report.Expired)
		assert.Equal(t, 0, report.CountEvicted)
		assert.Equal(t, 1, report.SizeEvicted)
		assert.Equal(t, int64(50), report.FreedBytes)
		assert.Contains(t, buf.String(), "Cache cleanup phase failed")
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		_, err := runCleanup(ctx, phases, func(context.Context, []string) error {
			called = true
			return nil
		}, zerolog.Nop())

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}
