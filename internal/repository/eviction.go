package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/rs/zerolog"
)

// Eviction reasons, in the order cleanup applies them.
const (
	ReasonExpired = "expired"
	ReasonCount   = "count"
	ReasonSize    = "size"
)

// sizeLowWatermark is the fraction of maxSize that size eviction shrinks down to.
const sizeLowWatermark = 0.8

type cleanupPhase struct {
	reason  string
	victims []model.CacheEntry
}

// planCleanup computes the three cleanup phases over a snapshot of entries.
// Each phase only considers the entries the previous phases left alive.
func planCleanup(entries []model.CacheEntry, now time.Time, maxSize int64, maxEntries int) []cleanupPhase {
	var expired, live []model.CacheEntry
	for _, e := range entries {
		if e.Expired(now) {
			expired = append(expired, e)
		} else {
			live = append(live, e)
		}
	}

	var byCount []model.CacheEntry
	if maxEntries > 0 && len(live) > maxEntries {
		sorted := append([]model.CacheEntry(nil), live...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Hits < sorted[j].Hits })
		excess := len(sorted) - maxEntries
		byCount = sorted[:excess]
		live = sorted[excess:]
	}

	var bySize []model.CacheEntry
	var total int64
	for _, e := range live {
		total += e.Size
	}
	if maxSize > 0 && total > maxSize {
		target := int64(float64(maxSize) * sizeLowWatermark)
		sorted := append([]model.CacheEntry(nil), live...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LastAccess < sorted[j].LastAccess })
		for _, e := range sorted {
			if total <= target {
				break
			}
			bySize = append(bySize, e)
			total -= e.Size
		}
	}

	return []cleanupPhase{
		{reason: ReasonExpired, victims: expired},
		{reason: ReasonCount, victims: byCount},
		{reason: ReasonSize, victims: bySize},
	}
}

// runCleanup removes each planned phase in order. A failing phase is logged
// and skipped; later phases still run.
func runCleanup(
	ctx context.Context,
	phases []cleanupPhase,
	remove func(ctx context.Context, keys []string) error,
	logger zerolog.Logger,
) (model.CleanupReport, error) {
	var report model.CleanupReport
	var errs []error

	for _, phase := range phases {
		if len(phase.victims) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		keys := make([]string, len(phase.victims))
		var freed int64
		for i, e := range phase.victims {
			keys[i] = e.Key
			freed += e.Size
		}

		if err := remove(ctx, keys); err != nil {
			logger.Warn().Err(err).
				Str("reason", phase.reason).
				Int("entries", len(keys)).
				Msg("Cache cleanup phase failed")
			errs = append(errs, fmt.Errorf("cleanup %s phase: %w", phase.reason, err))
			continue
		}

		switch phase.reason {
		case ReasonExpired:
			report.Expired = len(keys)
		case ReasonCount:
			report.CountEvicted = len(keys)
		case ReasonSize:
			report.SizeEvicted = len(keys)
		}
		report.FreedBytes += freed

		logger.Info().
			Str("reason", phase.reason).
			Int("entries", len(keys)).
			Str("freed", humanize.Bytes(uint64(freed))).
			Msg("Cache cleanup removed entries")
	}

	return report, errors.Join(errs...)
}
